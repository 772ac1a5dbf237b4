// Package data holds the sample recipes loaded by the seed command.
package data

import "embed"

// Sample files in FS.
const (
	RecipesCSV = "recipes.csv"
	Cards      = "cards.txt"
)

//go:embed recipes.csv cards.txt
var FS embed.FS
