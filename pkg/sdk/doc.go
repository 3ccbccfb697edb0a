// Package modcurator embeds the mod candidate retrieval and dependency
// resolution engine in a Go program, backed by a Redis or SQLite catalog.
//
// # Retrieval
//
//	client, _ := modcurator.New(ctx,
//	    modcurator.WithRedis("localhost:6379", ""),
//	    modcurator.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	res, _ := client.Retrieve(ctx, modcurator.RetrieveRequest{
//	    Queries: []modcurator.Query{
//	        {Type: modcurator.QuerySemantic, Text: "better fps and smoother chunk loading", Weight: 1},
//	        {Type: modcurator.QueryKeyword, Text: "sodium lithium"},
//	    },
//	    Platform:  modcurator.Platform{MCVersion: "1.21.1", Loader: "fabric"},
//	    Diversity: modcurator.Diversity{Enabled: true},
//	})
//
// # Resolution
//
//	out, _ := client.ResolveIDs(ctx, []string{"AANobbMI", "gvQqBUqZ"},
//	    modcurator.Platform{MCVersion: "1.21.1", Loader: "fabric"})
//	for _, e := range out.FinalMods {
//	    fmt.Println(e.Mod.Name, e.AddedAsDependency)
//	}
//
// Without WithEmbedder semantic queries fail individually and are reported in
// RetrieveResult.Queries; keyword retrieval and resolution keep working.
package modcurator
