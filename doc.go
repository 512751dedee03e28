// Package paramkit provides declaration-driven parameter sets with
// (de)serialization across JSON, YAML, TOML and INI, a document merge
// routine for layering configuration files, and helpers for sampling
// parameter values during hyperparameter search.
//
// Features:
//   - Parameter declarations with kinds, defaults, docs and choices
//   - Thread-safe sets using sync.RWMutex
//   - Pluggable serializers/deserializers resolved by name, then kind
//   - Clobber and nested merge of parsed documents, with diagnostics
//   - File combiners plus "key.path=value" overrides
//   - Struct registration and decoding with tag support
//   - Trial-driven sampling of tunable parameters
//
// Quick Start:
//
//	p := paramkit.New("model")
//	p.Register(paramkit.Param{Name: "lr", Kind: paramkit.KindFloat, Default: 1e-4, Doc: "learning rate"})
//	p.Register(paramkit.Param{Name: "layers", Kind: paramkit.KindInt, Default: 3})
//
//	if err := paramkit.DeserializeFromYAML("model.yaml", p, paramkit.DeserializeOptions{}); err != nil {
//	    log.Fatal(err)
//	}
//
//	lr, _ := p.Float64("lr")
//
// Combining files:
//
//	err := paramkit.CombineJSONFiles(
//	    []string{"base.json", "override.json"}, "out.json",
//	    paramkit.CombineFilesOptions{Nested: true},
//	)
//
// Thread Safety:
// All operations on a set are thread-safe. Reads take a shared lock so
// concurrent serialization is cheap.
package paramkit
