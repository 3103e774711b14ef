package problem

import (
	"bytes"
	_ "embed"
)

var (
	//go:embed example/example-problem.json
	exampleProblem []byte
	//go:embed example/example-solution.json
	exampleSolution []byte
)

// Example returns the small problem published with the contest rules:
// three musicians, three attendees and one pillar.
func Example() *Problem {
	p, err := Read(bytes.NewReader(exampleProblem))
	if err != nil {
		panic("problem: embedded example is invalid: " + err.Error())
	}
	return p
}

// ExampleSolution returns the placement published alongside Example.
func ExampleSolution() *Solution {
	s, err := ReadSolution(bytes.NewReader(exampleSolution))
	if err != nil {
		panic("problem: embedded example solution is invalid: " + err.Error())
	}
	return s
}
