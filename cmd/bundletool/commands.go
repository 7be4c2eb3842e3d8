package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Faultbox/sketchplane/internal/assets"
	"github.com/Faultbox/sketchplane/internal/mesh"
	"github.com/Faultbox/sketchplane/pkg/bundle"
	"github.com/Faultbox/sketchplane/pkg/formats"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bundletool",
		Short:         "Build and inspect workplane mesh bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newInfoCmd(), newListCmd(), newPackCmd(), newDumpCmd())
	return root
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <bundle>",
		Short: "Show bundle header and per-mesh statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := bundle.Open(args[0])
			if err != nil {
				return err
			}
			defer archive.Close()

			out := cmd.OutOrStdout()
			h := archive.Header()
			names := archive.List()
			fmt.Fprintf(out, "Bundle:  %s\n", args[0])
			fmt.Fprintf(out, "Version: 0x%x\n", h.Version)
			fmt.Fprintf(out, "Meshes:  %d\n\n", len(names))

			for _, name := range names {
				raw, err := archive.Read(name)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				data, err := formats.ParseWMSH(raw)
				if err != nil {
					fmt.Fprintf(out, "  %-20s corrupt: %v\n", name, err)
					continue
				}
				entry, _ := archive.Stat(name)
				fmt.Fprintf(out, "  %-20s %4d verts %4d faces  groups [%s]  %d/%d bytes\n",
					name, len(data.Vertices), len(data.Faces), strings.Join(data.Groups, " "),
					entry.CompressedSize, entry.UncompressedSize)
			}
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list <bundle>... [--match text]",
		Short: "List mesh names across bundles, later bundles first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, _ := cmd.Flags().GetString("match")

			m, err := openBundles(args)
			if err != nil {
				return err
			}
			defer m.Close()

			out := cmd.OutOrStdout()
			count := 0
			for _, name := range m.Names() {
				if match != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(match)) {
					continue
				}
				fmt.Fprintln(out, name)
				count++
				if limit > 0 && count >= limit {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit output to N names (0 = all)")
	cmd.Flags().String("match", "", "Only names containing this text")
	return cmd
}

func newPackCmd() *cobra.Command {
	var doubleSided bool
	cmd := &cobra.Command{
		Use:   "pack <out.bundle> <document.yaml>...",
		Short: "Pack YAML mesh documents into a bundle",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := bundle.NewWriter()
			for _, path := range args[1:] {
				if err := packDocument(w, path, doubleSided, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			if err := w.WriteFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d meshes to %s\n", w.Len(), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&doubleSided, "double-sided", true, "Check meshes with double-sided preprocessing")
	return cmd
}

// packDocument adds every mesh in a document after checking that it
// survives the same preprocessing the picker applies.
func packDocument(w *bundle.Writer, path string, doubleSided bool, out io.Writer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := formats.ParseMeshDocument(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for i := range doc.Meshes {
		entry := &doc.Meshes[i]
		data, err := entry.Data()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		m, err := assets.FromData(entry.Name, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		prepared, err := mesh.Preprocess(m, doubleSided)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		blob, err := formats.EncodeWMSH(data)
		if err != nil {
			return fmt.Errorf("%s: mesh %q: %w", path, entry.Name, err)
		}
		if err := w.Add(entry.Name, blob); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(out, "  %s: %s (%d triangles)\n", filepath.Base(path), entry.Name, len(prepared.Faces))
	}
	return nil
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <bundle>... <mesh>",
		Short: "Print a mesh as a YAML document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[len(args)-1]
			m, err := openBundles(args[:len(args)-1])
			if err != nil {
				return err
			}
			defer m.Close()

			loaded, err := m.Load(name)
			if err != nil {
				return err
			}
			doc := formats.MeshDocument{
				Meshes: []formats.MeshEntry{formats.EntryFromData(name, assets.ToData(loaded))},
			}
			text, err := doc.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(text)
			return err
		},
	}
}

func openBundles(paths []string) (*assets.Manager, error) {
	m := assets.NewManager()
	for _, p := range paths {
		if err := m.AddBundle(p); err != nil {
			m.Close()
			return nil, err
		}
	}
	return m, nil
}
