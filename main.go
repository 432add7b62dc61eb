/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/hughigh/loginserver/cmd"

func main() {
	cmd.Execute()
}
