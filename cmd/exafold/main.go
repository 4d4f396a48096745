// Command exafold builds restrained simulation systems from structures,
// force field files and restraint lists.
package main

const version = "0.3.0"

func main() {
	Execute()
}
