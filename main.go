/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/vasilii314/batcher/cmd"

func main() {
	cmd.Execute()
}
