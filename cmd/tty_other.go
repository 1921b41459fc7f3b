//go:build !unix

package cmd

import "os"

func isTTY(*os.File) bool { return true }
