package paramkit

import "fmt"

// FileValue adapts a parameter set to the flag.Value / pflag.Value
// interfaces. Setting the flag reads the named file and deserializes it
// into Params, so repeated flags layer files onto the same set.
type FileValue struct {
	Params *Params
	Format Format
	Opts   DeserializeOptions

	path string
}

func (f *FileValue) String() string {
	return f.path
}

func (f *FileValue) Type() string {
	return "file"
}

// Set deserializes the file at path into the wrapped set.
func (f *FileValue) Set(path string) error {
	if f.Params == nil {
		return fmt.Errorf("no parameter set bound to flag")
	}
	doc, format, err := ReadDocument(path, f.Format)
	if err != nil {
		return err
	}
	switch format {
	case FormatINI:
		err := DeserializeFromINI(path, f.Params, INIOptions{
			SerializeOptions: SerializeOptions{
				Only:      f.Opts.Only,
				OnMissing: f.Opts.OnMissing,
				Warn:      f.Opts.Warn,
			},
		})
		if err != nil {
			return err
		}
	default:
		block, ok := doc.(map[string]any)
		if !ok {
			return fmt.Errorf("file '%s' does not hold a mapping at its root", path)
		}
		if err := deserializeAny(block, f.Params, f.Opts); err != nil {
			return err
		}
	}
	f.path = path
	return nil
}
