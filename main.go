package main

import "github.com/EduardoVBF/frota-mirim-sub000/cmd"

func main() {
	cmd.Execute()
}
