package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"project-scaffold-web/internal/domain/services"
	"project-scaffold-web/pkg/config"
	"project-scaffold-web/pkg/filetree"
)

var strict bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "treectl",
		Short:         "Inspect and convert project tree JSON documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&strict, "strict", false, "Reject duplicate sibling names")

	root.AddCommand(
		validateCmd(),
		flattenCmd(),
		findCmd(),
		statsCmd(),
		printCmd(),
		entryCmd(),
		skeletonCmd(),
		exportZipCmd(),
	)
	return root
}

// load reads a tree document from a file, or stdin when path is "-".
func load(cmd *cobra.Command, path string) (*filetree.Node, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return filetree.IngestWithOptions(data, filetree.IngestOptions{RejectDuplicates: strict})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <tree.json>",
		Short: "Check that a document is a well-formed tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			if err := filetree.Validate(root); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d files\n", filetree.CountFiles(root))
			return nil
		},
	}
}

func flattenCmd() *cobra.Command {
	var pathsOnly bool
	cmd := &cobra.Command{
		Use:   "flatten <tree.json>",
		Short: "Print the flat path to content map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			if pathsOnly {
				for p := range filetree.Flatten(root) {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), filetree.FlatMap(root))
		},
	}
	cmd.Flags().BoolVarP(&pathsOnly, "paths", "p", false, "Print only file paths")
	return cmd
}

func findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <tree.json> <path>",
		Short: "Print the node at a slash separated path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			n, err := filetree.FindByPath(root, args[1])
			if err != nil {
				return err
			}
			if n.IsFile() {
				_, err = io.WriteString(cmd.OutOrStdout(), n.Content)
				return err
			}
			for _, c := range n.Children {
				if c == nil {
					continue
				}
				name := c.Name
				if c.IsFolder() {
					name += "/"
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	var splitLines bool
	cmd := &cobra.Command{
		Use:   "stats <tree.json>",
		Short: "Count files, folders and lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			st := filetree.Summarize(root)
			if splitLines {
				st.Lines = filetree.CountLinesSplit(root)
			}
			return writeJSON(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().BoolVar(&splitLines, "split-lines", false, "Count an empty file as one line")
	return cmd
}

func printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print <tree.json>",
		Short: "Render the tree as an indented listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), filetree.Render(root))
			return err
		},
	}
}

func entryCmd() *cobra.Command {
	var candidates string
	cmd := &cobra.Command{
		Use:   "entry <tree.json>",
		Short: "Print the path of the preview entry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			list := filetree.DefaultEntryCandidates
			if candidates != "" {
				list = strings.Split(candidates, ",")
			}
			p, _, err := filetree.ResolveEntry(root, list)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().StringVar(&candidates, "candidates", "", "Comma separated entry candidates")
	return cmd
}

func skeletonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skeleton <name>",
		Short: "Print the default React skeleton as tree JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := filetree.Egest(filetree.DefaultSkeleton(args[0]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func exportZipCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-zip <tree.json>",
		Short: "Write the tree as a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			fp := services.NewFileProcessor(config.Default())
			if output == "" || output == "-" {
				return fp.ExportZip(root, cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := fp.ExportZip(root, f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	return cmd
}
