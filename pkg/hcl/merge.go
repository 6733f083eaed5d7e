package hcl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
)

// MergeHCLFiles combines multiple HCL files into a single HCL file body,
// the way Terraform loads every .tf file of a directory. Interval blocks from
// all files are kept; an attribute set in two files is an error.
func MergeHCLFiles(filePaths []string) (*hcl.File, error) {
	parser := hclparse.NewParser()
	var mergedContent bytes.Buffer

	for _, path := range filePaths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}

		mergedContent.Write(content)
		mergedContent.WriteString("\n")
	}

	file, diags := parser.ParseHCL(mergedContent.Bytes(), "merged.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse merged HCL content: %s", diags.Error())
	}

	return file, nil
}

// ParseHCLDirectory parses all .hcl files in a directory into one chart config
func ParseHCLDirectory(dirPath string) (chart.Config, error) {
	var hclFiles []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsHCLBasedOnExtension(info.Name()) {
			hclFiles = append(hclFiles, path)
		}
		return nil
	})
	if err != nil {
		return chart.Config{}, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	if len(hclFiles) == 0 {
		return chart.Config{}, fmt.Errorf("no HCL files found in directory %s", dirPath)
	}

	mergedFile, err := MergeHCLFiles(hclFiles)
	if err != nil {
		return chart.Config{}, err
	}

	return parseChartFromFile(mergedFile)
}

// LoadConfigFile reads a chart config, choosing the format by extension.
// A directory is merged as HCL.
func LoadConfigFile(path string) (chart.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return chart.Config{}, fmt.Errorf("failed to stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return ParseHCLDirectory(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return chart.Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case IsHCLBasedOnExtension(path):
		return ParseChartConfig(string(data))
	case ext == ".yaml" || ext == ".yml":
		return ParseChartConfigYAML(data)
	case ext == ".json":
		return ParseChartConfigJSON(data)
	default:
		return chart.Config{}, fmt.Errorf("unsupported config extension %q", ext)
	}
}
