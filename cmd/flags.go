package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/quickstart/internal/types"
	"github.com/conneroisu/quickstart/internal/validation"
)

// Output formats accepted by --format.
var outputFormats = []string{"table", "json", "yaml"}

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Output flags
	Format string `flag:"format,f" desc:"Output format (table|json|yaml)" default:"table"`

	// Confirmation flags
	Yes bool `flag:"yes,y" desc:"Assume yes for every confirmation" default:"false"`
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "output":
			addOutputFlags(cmd, flags)
		case "confirm":
			cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Assume yes for every confirmation")
		}
	}

	return flags
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Format, "format", "f", "table", "Output format (table|json|yaml)")
	AddFlagValidation(cmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, outputFormats)
	})
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags() error {
	if f.Format != "" {
		if err := ValidateFormatWithSuggestion(f.Format, outputFormats); err != nil {
			return err
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormatWithSuggestion rejects a format outside valid and names the
// closest valid one.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	lower := strings.ToLower(format)
	for _, v := range valid {
		if lower == v {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
	best, bestDist := "", 3
	for _, v := range valid {
		if d := editDistance(lower, v); d < bestDist {
			best, bestDist = v, d
		}
	}
	if best != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", best)
	}
	return fmt.Errorf("%s", msg)
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur := make([]int, len(b)+1)
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev = cur
	}
	return prev[len(b)]
}

// ValidateFileExists validates that an optional file argument exists.
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}

	return nil
}

// valuesFlag collects repeated --var key=value flags.
type valuesFlag map[string]string

func (v valuesFlag) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + v[k]
	}
	return strings.Join(pairs, ",")
}

func (v valuesFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	v[strings.TrimSpace(key)] = value
	return nil
}

func (v valuesFlag) Type() string {
	return "key=value"
}

// ParseVarsJSON decodes a --vars object. Non-string values are formatted
// with their JSON text so numbers and booleans can be supplied unquoted.
func ParseVarsJSON(s string) (map[string]string, error) {
	if s == "" {
		return map[string]string{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in --vars: %w", err)
	}
	values := make(map[string]string, len(raw))
	for k, msg := range raw {
		var str string
		if err := json.Unmarshal(msg, &str); err == nil {
			values[k] = str
			continue
		}
		values[k] = string(msg)
	}
	return values, nil
}

// variablesFlag collects repeated --variable declarations of the form
// name[!][=default]. A trailing "!" on the name marks it required.
type variablesFlag struct {
	vars *[]types.Variable
}

func (v variablesFlag) String() string {
	if v.vars == nil {
		return ""
	}
	names := make([]string, len(*v.vars))
	for i, variable := range *v.vars {
		names[i] = variable.Name
	}
	return strings.Join(names, ",")
}

func (v variablesFlag) Set(s string) error {
	variable, err := parseVariable(s)
	if err != nil {
		return err
	}
	*v.vars = append(*v.vars, variable)
	return nil
}

func (v variablesFlag) Type() string {
	return "name[!][=default]"
}

func parseVariable(s string) (types.Variable, error) {
	name, def, hasDefault := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	required := strings.HasSuffix(name, "!")
	name = strings.TrimSuffix(name, "!")
	if name == "" {
		return types.Variable{}, fmt.Errorf("variable name cannot be empty in %q", s)
	}
	if strings.ContainsAny(name, "{}") {
		return types.Variable{}, fmt.Errorf("variable name cannot contain braces: %q", name)
	}

	variable := types.Variable{Name: name, Required: required}
	if hasDefault {
		variable.Default = types.StringPtr(def)
	}
	return variable, nil
}

// scriptsFlag collects repeated --script name=command declarations.
type scriptsFlag struct {
	scripts      *[]types.Script
	runByDefault bool
}

func (s scriptsFlag) String() string {
	if s.scripts == nil {
		return ""
	}
	names := make([]string, 0, len(*s.scripts))
	for _, script := range *s.scripts {
		if script.RunByDefault == s.runByDefault {
			names = append(names, script.Name)
		}
	}
	return strings.Join(names, ",")
}

func (s scriptsFlag) Set(val string) error {
	name, command, ok := strings.Cut(val, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.TrimSpace(command) == "" {
		return fmt.Errorf("expected name=command, got %q", val)
	}
	*s.scripts = append(*s.scripts, types.Script{
		Name:         name,
		Command:      command,
		RunByDefault: s.runByDefault,
	})
	return nil
}

func (s scriptsFlag) Type() string {
	return "name=command"
}

// templateFlags declares the metadata flags shared by init and github.
type templateFlags struct {
	Name        string
	Description string
	Ignore      string
	MetaFile    string
	Force       bool
	Variables   []types.Variable
	Scripts     []types.Script
}

func addTemplateFlags(cmd *cobra.Command, f *templateFlags) {
	cmd.Flags().StringVarP(&f.Name, "name", "n", "", "Name of the template")
	cmd.Flags().StringVarP(&f.Description, "description", "d", "", "Description of the template")
	cmd.Flags().StringVar(&f.Ignore, "ignore", "", "Comma separated ignore patterns (default node_modules,dist,.git,.DS_Store,*.log)")
	cmd.Flags().StringVar(&f.MetaFile, "meta-file", "", "JSON file declaring variables and postCreationScripts")
	cmd.Flags().BoolVar(&f.Force, "force", false, "Replace an existing template of the same name")
	cmd.Flags().Var(variablesFlag{vars: &f.Variables}, "variable", "Declare a variable as name[!][=default]; \"!\" marks it required (repeatable)")
	cmd.Flags().Var(scriptsFlag{scripts: &f.Scripts, runByDefault: true}, "script", "Declare a post-creation script run by default as name=command (repeatable)")
	cmd.Flags().Var(scriptsFlag{scripts: &f.Scripts}, "optional-script", "Declare a post-creation script run only on request as name=command (repeatable)")
	AddFlagValidation(cmd, "meta-file", ValidateFileExists)
}

// metadata assembles template metadata from the flags. Declarations from
// --meta-file come first, followed by those given on the command line.
func (f *templateFlags) metadata(name, description string) (types.Metadata, error) {
	meta := types.Metadata{Name: name, Description: validation.SanitizeInput(description)}

	if f.MetaFile != "" {
		data, err := os.ReadFile(f.MetaFile)
		if err != nil {
			return meta, fmt.Errorf("failed to read meta file %s: %w", f.MetaFile, err)
		}
		var fromFile types.Metadata
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return meta, fmt.Errorf("invalid JSON in meta file %s: %w", f.MetaFile, err)
		}
		meta.Variables = append(meta.Variables, fromFile.Variables...)
		meta.PostCreationScripts = append(meta.PostCreationScripts, fromFile.PostCreationScripts...)
	}

	meta.Variables = append(meta.Variables, f.Variables...)
	meta.PostCreationScripts = append(meta.PostCreationScripts, f.Scripts...)
	meta.Normalize()
	return meta, nil
}
