package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// JobConfig describes one allow-listed job: the task ID it serves and the command that runs it.
type JobConfig struct {
	TaskID      string            `yaml:"task_id" json:"task_id"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of jobs.yaml
type ConfigFile struct {
	Jobs []JobConfig `yaml:"jobs" json:"jobs"`
}

// LoadJobs reads a configuration file (YAML or JSON) and returns a map of task IDs to configs.
// A missing file yields an empty map.
func LoadJobs(path string) (map[string]JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]JobConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read jobs config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	jobs := make(map[string]JobConfig)
	for _, job := range cfg.Jobs {
		if job.TaskID == "" || job.Command == "" {
			continue
		}
		jobs[job.TaskID] = job
	}
	return jobs, nil
}
