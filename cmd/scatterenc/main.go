// Command scatterenc resolves scatterplot encodings against a CSV file and
// prints what the renderer would receive.
//
// Usage:
//
//	scatterenc encode --data points.csv --encoding encoding.yaml
//	scatterenc domain --data points.csv mass year
//	scatterenc lambda 'd => d.length' apple kiwi
//	scatterenc shader --wgsl
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/scatter"
	"github.com/gogpu/scatter/dataset"
	"github.com/gogpu/scatter/lambda"
	"github.com/gogpu/scatter/shader"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:          "scatterenc",
		Short:        "Resolve scatterplot aesthetic encodings",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging(cmd, logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (default silent)")

	root.AddCommand(newEncodeCmd(), newDomainCmd(), newLambdaCmd(), newShaderCmd())
	return root
}

func configureLogging(cmd *cobra.Command, level string) error {
	if level == "" {
		scatter.SetLogger(nil)
		return nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	scatter.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: l})))
	return nil
}

func loadTable(path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tab, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tab, nil
}

// stateOutput is the printed form of one aesthetic.
type stateOutput struct {
	Aesthetic     string    `yaml:"aesthetic"`
	Field         string    `yaml:"field,omitempty"`
	Constant      float64   `yaml:"constant"`
	Domain        []float64 `yaml:"domain,flow"`
	Range         []float64 `yaml:"range,flow"`
	Transform     string    `yaml:"transform"`
	WebGLDomain   []float64 `yaml:"webgl_domain,flow"`
	UseAtlasSlot  bool      `yaml:"use_atlas_slot"`
	AtlasPosition int       `yaml:"atlas_position"`
	JitterMethod  string    `yaml:"jitter_method,omitempty"`
	FilterOp      []float32 `yaml:"filter_op,flow,omitempty"`
	Texture       []float32 `yaml:"texture,flow,omitempty"`
}

func newEncodeCmd() *cobra.Command {
	var (
		dataPath     string
		encodingPath string
		textureSize  int
		textures     bool
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Apply an encoding file and print the resolved aesthetics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := loadTable(dataPath)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(encodingPath)
			if err != nil {
				return err
			}
			var encoding map[string]any
			if err := yaml.Unmarshal(raw, &encoding); err != nil {
				return fmt.Errorf("decode %s: %w", encodingPath, err)
			}

			enc, err := scatter.New(tab, scatter.WithTextureSize(textureSize))
			if err != nil {
				return err
			}
			if err := enc.Apply(encoding); err != nil {
				return err
			}

			var out []stateOutput
			for _, s := range enc.States() {
				if _, set := encoding[s.Kind.String()]; !set {
					continue
				}
				so := stateOutput{
					Aesthetic:     s.Kind.String(),
					Field:         s.Field,
					Constant:      s.Constant,
					Domain:        s.Domain[:],
					Range:         s.Range[:],
					Transform:     string(s.Transform),
					WebGLDomain:   s.WebGLDomain[:],
					UseAtlasSlot:  s.UseAtlasSlot,
					AtlasPosition: s.AtlasPosition,
				}
				if s.JitterMethod != scatter.JitterNone {
					so.JitterMethod = string(s.JitterMethod)
				}
				if s.FilterOp != [3]float32{} {
					so.FilterOp = s.FilterOp[:]
				}
				if textures && s.UseAtlasSlot {
					so.Texture = enc.Aesthetic(s.Kind).Texture()
				}
				out = append(out, so)
			}
			return writeYAML(cmd, out)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "CSV file with a header row")
	cmd.Flags().StringVar(&encodingPath, "encoding", "", "YAML or JSON file mapping aesthetic names to channels")
	cmd.Flags().IntVar(&textureSize, "texture-size", 4096, "texture resolution (power of 2)")
	cmd.Flags().BoolVar(&textures, "textures", false, "include lookup textures in the output")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("encoding")
	return cmd
}

func newDomainCmd() *cobra.Command {
	var (
		dataPath    string
		textureSize int
	)
	cmd := &cobra.Command{
		Use:   "domain FIELD...",
		Short: "Print the inferred domain of each field",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := loadTable(dataPath)
			if err != nil {
				return err
			}
			enc, err := scatter.New(tab, scatter.WithTextureSize(textureSize))
			if err != nil {
				return err
			}
			domains := make(map[string][]float64, len(args))
			for _, field := range args {
				ext, err := enc.Aesthetic(scatter.Size).InferDomain(field)
				if err != nil {
					return err
				}
				domains[field] = ext[:]
			}
			return writeYAML(cmd, domains)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "CSV file with a header row")
	cmd.Flags().IntVar(&textureSize, "texture-size", 4096, "texture resolution (power of 2)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newLambdaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda EXPR [VALUE...]",
		Short: "Compile a lambda and apply it to each value",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := lambda.Compile(args[0])
			if err != nil {
				return err
			}
			for _, arg := range args[1:] {
				var in any = arg
				if f, err := strconv.ParseFloat(arg, 64); err == nil {
					in = f
				}
				out, err := fn(in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", arg, lambda.ToString(out))
			}
			return nil
		},
	}
}

func newShaderCmd() *cobra.Command {
	var wgsl bool
	cmd := &cobra.Command{
		Use:   "shader",
		Short: "Compile the aesthetic shader to SPIR-V",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if wgsl {
				fmt.Fprint(cmd.OutOrStdout(), shader.Source)
				return nil
			}
			spirv, err := shader.Compile()
			if err != nil {
				return fmt.Errorf("compile shader: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "spirv: %d bytes, entry point %s, uniform block %d bytes\n",
				len(spirv), shader.EntryPoint, shader.UniformSize)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wgsl, "wgsl", false, "print the WGSL source instead")
	return cmd
}

func writeYAML(cmd *cobra.Command, v any) error {
	var sb strings.Builder
	e := yaml.NewEncoder(&sb)
	e.SetIndent(2)
	if err := e.Encode(v); err != nil {
		return err
	}
	if err := e.Close(); err != nil {
		return err
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), sb.String())
	return err
}
