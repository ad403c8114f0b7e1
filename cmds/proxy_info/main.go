package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/skinproxy/clustermesh"
	"github.com/unixpickle/skinproxy/rawmesh"
	"github.com/unixpickle/skinproxy/skinmap"
)

func main() {
	var radius float64
	var maxInfluences int
	flag.Float64Var(&radius, "radius", skinmap.DefaultParams().Radius,
		"radius of influence when checking skinning coverage")
	flag.IntVar(&maxInfluences, "max-influences", skinmap.DefaultParams().MaxInfluences,
		"maximum clusters per source vertex")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: proxy_info [flags] <input.proxy>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}

	mesh, err := rawmesh.Load(args[0], clustermesh.ReadMesh)
	essentials.Must(err)

	fmt.Println("Source vertices:", mesh.SourceVertexCount())
	fmt.Println("Source triangles:", mesh.SourceTriangleCount())
	fmt.Println("Clusters:", mesh.ClusterCount())
	fmt.Println("Triangles:", mesh.TriangleCount())
	fmt.Println("Edges:", len(mesh.UniqueEdges()))
	fmt.Println("Border clusters:", mesh.BorderClusterCount())
	fmt.Println("Max cluster neighborhood:", mesh.MaxClusterNeighborhoodSize())
	fmt.Printf("Max vertex distance: %f\n", mesh.MaxDistanceFromCluster())

	params := skinmap.DefaultParams()
	params.Radius = radius
	params.MaxInfluences = maxInfluences
	influences := skinmap.MapClustersToVertices(mesh, mesh.SourceVertices(), params)
	fmt.Println("Unbound source vertices:", influences.UnboundCount())
	fmt.Println("Max influences per vertex:", influences.MaxInfluenceCount())
}
