package main

import (
	"github.com/pramodksahoo/jenkins-production/cmd/jenkinsctl/cmd"
)

func main() {
	cmd.Execute()
}
