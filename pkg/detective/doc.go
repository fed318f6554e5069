// Package detective infers attributes of a software project by running a set
// of pluggable analyzers ("detectives") against the attributes already known
// and against externally fetched evidence.
//
// Usage:
//
//	reg := detective.NewRegistry()
//	reg.MustRegister(github.New())
//	eng, err := detective.NewEngine(reg, detective.WithParallelism(4))
//	res, err := eng.Run(ctx, source, detective.Seed(map[detective.Name]string{
//	    detective.NameRepoURL: "https://github.com/linuxfoundation/cii-best-practices-badge",
//	}, detective.MaxConfidence))
//	fmt.Println(res.Values()[detective.NameLicense])
//
// Each detective declares the attribute names it reads and the names it
// proposes. The engine orders detectives by those declarations, runs each
// ready detective against a snapshot taken at the start of a pass, and merges
// proposals in registration order. Higher confidence replaces a stored value;
// equal confidence never does, so the detective registered first wins ties.
package detective
