package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ritzau/causegraph/pkg/lens"
	"github.com/ritzau/causegraph/pkg/loader"
	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/source"
)

// coreNode is a core member as printed by the core command.
type coreNode struct {
	ID    model.NodeID `json:"id"`
	Name  string       `json:"name"`
	Depth *int         `json:"depth,omitempty"`
}

type coreOutput struct {
	Scope string         `json:"scope"`
	Root  *model.NodeID  `json:"root,omitempty"`
	Depth int            `json:"depth,omitempty"`
	Nodes []coreNode     `json:"nodes"`
	Links []model.Link   `json:"links"`
	Seeds []model.NodeID `json:"seeds,omitempty"`
}

func newCoreCmd(a *app) *cobra.Command {
	var root int64

	cmd := &cobra.Command{
		Use:   "core",
		Short: "Print the hierarchy core of a view as JSON",
		Long: "Without --root the core is the forest under the function roots. " +
			"With --root it is the neighborhood of that node within --depth hops.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.Open(cmd.Context(), a.cfg.Data)
			if err != nil {
				return err
			}
			res, err := loader.Load(cmd.Context(), src)
			if err != nil {
				return err
			}
			m := res.Model

			var out coreOutput
			var core lens.Core
			if cmd.Flags().Changed("root") {
				id := model.NodeID(root)
				core = lens.BiLocal(m, id, a.cfg.Layout.Depth)
				out = coreOutput{Scope: "local", Root: &id, Depth: a.cfg.Layout.Depth}
			} else {
				core = lens.Forest(m, m.FunctionRoots)
				out = coreOutput{Scope: "global", Seeds: m.FunctionRoots}
			}

			out.Nodes = make([]coreNode, 0, len(core.Nodes))
			for _, id := range core.Nodes {
				n := coreNode{ID: id}
				if mn, ok := m.Node(id); ok {
					n.Name = mn.Name
				}
				if d, ok := core.DepthByID[id]; ok {
					n.Depth = &d
				}
				out.Nodes = append(out.Nodes, n)
			}
			out.Links = core.Links

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&root, "root", 0, "node id to center the core on")
	f.IntP("depth", "d", 2, "hop limit around --root")
	return cmd
}
