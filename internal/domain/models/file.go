package models

import (
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/types"
)

// FileContent alias to unified model
type FileContent = types.FileContent

// ProcessResult alias to unified model
type ProcessResult = types.ProcessResult

// Node alias to the virtual file tree node
type Node = filetree.Node
