package core

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

type hfConfig struct {
	Id2Label map[string]string `json:"id2label"`
}

// LoadLabels reads the index -> label table of a model. A .json file is treated as a
// transformers config and its id2label map is used; anything else is one label per line.
func LoadLabels(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadId2Label(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening labels file: %w", err)
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading labels file %s: %w", path, err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

func loadId2Label(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model config: %w", err)
	}

	var cfg hfConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing model config %s: %w", path, err)
	}
	if len(cfg.Id2Label) == 0 {
		return nil, fmt.Errorf("model config %s has no id2label", path)
	}

	ids := make([]int, 0, len(cfg.Id2Label))
	for k := range cfg.Id2Label {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid label id %q in %s: %w", k, path, err)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	labels := make([]string, len(ids))
	for i, id := range ids {
		if id != i {
			return nil, fmt.Errorf("label ids in %s are not contiguous: missing %d", path, i)
		}
		labels[i] = cfg.Id2Label[strconv.Itoa(id)]
	}
	return labels, nil
}
