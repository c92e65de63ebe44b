package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jamesainslie/mediastamp/pkg/mediastamp/birthtime"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/config"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/exif"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/output"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/sidecar"
	"github.com/jamesainslie/mediastamp/pkg/mediastamp/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errInspectFailed is returned when at least one file could not be inspected.
var errInspectFailed = errors.New("some files could not be inspected")

// inspection is what mediastamp knows about one file, without writing anything.
type inspection struct {
	Path           string            `json:"path" yaml:"path"`
	Class          string            `json:"class" yaml:"class"`
	Size           int64             `json:"size" yaml:"size"`
	SizeHuman      string            `json:"size_human" yaml:"size_human"`
	Modified       string            `json:"modified" yaml:"modified"`
	Created        string            `json:"created,omitempty" yaml:"created,omitempty"`
	CreatedError   string            `json:"created_error,omitempty" yaml:"created_error,omitempty"`
	Sidecar        string            `json:"sidecar,omitempty" yaml:"sidecar,omitempty"`
	SidecarStatus  string            `json:"sidecar_status,omitempty" yaml:"sidecar_status,omitempty"`
	SidecarContent string            `json:"sidecar_content,omitempty" yaml:"sidecar_content,omitempty"`
	Captured       string            `json:"captured,omitempty" yaml:"captured,omitempty"`
	Camera         string            `json:"camera,omitempty" yaml:"camera,omitempty"`
	Tags           map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

const sidecarMissing = "missing"

func newInspectCmd(a *app) *cobra.Command {
	var allTags bool

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Show what mediastamp sees for individual files",
		Long: `Show the classification, creation time and sidecar state of each file,
plus the capture time and camera from EXIF data where present. Nothing is
written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, args, allTags)
		},
	}
	cmd.Flags().BoolVar(&allTags, "tags", false, "include every EXIF tag")
	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, args []string, allTags bool) error {
	creationTime := a.creationTime
	if creationTime == nil {
		creationTime = birthtime.Of
	}

	var (
		results []inspection
		failed  bool
	)
	for _, arg := range args {
		in, err := a.inspect(arg, creationTime, allTags)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), output.ErrorStyle.Render(fmt.Sprintf("%s: %v", arg, err)))
			failed = true
			continue
		}
		results = append(results, *in)
	}

	if err := a.printInspections(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if failed {
		return errInspectFailed
	}
	return nil
}

func (a *app) inspect(arg string, creationTime birthtime.Func, allTags bool) (*inspection, error) {
	path, err := config.ExpandPath(arg)
	if err != nil {
		return nil, err
	}
	if path, err = filepath.Abs(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	class := a.extensions().Classify(name, info.Mode().IsRegular())

	in := &inspection{
		Path:      path,
		Class:     string(class),
		Size:      info.Size(),
		SizeHuman: types.FormatSize(info.Size()),
		Modified:  sidecar.FormatTimestamp(info.ModTime().In(time.Local)),
	}
	if class != types.ClassMedia {
		return in, nil
	}

	if created, err := creationTime(path, info); err == nil {
		in.Created = sidecar.FormatTimestamp(created.In(time.Local))
	} else {
		in.CreatedError = err.Error()
	}

	in.Sidecar = sidecar.Path(filepath.Dir(path), name)
	in.SidecarStatus = sidecarMissing
	if _, err := os.Lstat(in.Sidecar); err == nil {
		in.SidecarStatus = string(types.SidecarExists)
		if data, err := os.ReadFile(in.Sidecar); err == nil {
			in.SidecarContent = strings.TrimRight(string(data), "\n")
		}
	}

	if x, err := exif.Read(path); err == nil {
		if !x.Captured.IsZero() {
			in.Captured = sidecar.FormatTimestamp(x.Captured)
		}
		in.Camera = x.Camera
		if allTags {
			in.Tags = x.Tags
		}
	}
	return in, nil
}

func (a *app) printInspections(w io.Writer, results []inspection) error {
	switch a.cfg.Output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	}

	for i, in := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, output.TitleStyle.Render(in.Path))
		field(w, "Class", in.Class)
		field(w, "Size", in.SizeHuman)
		field(w, "Modified", in.Modified)
		if in.Class != string(types.ClassMedia) {
			continue
		}
		if in.CreatedError != "" {
			field(w, "Created", output.ErrorStyle.Render(in.CreatedError))
		} else {
			field(w, "Created", in.Created)
		}
		field(w, "Sidecar", fmt.Sprintf("%s (%s)", in.Sidecar, in.SidecarStatus))
		if in.SidecarContent != "" {
			field(w, "Recorded", in.SidecarContent)
		}
		if in.Captured != "" {
			field(w, "Captured", in.Captured)
		}
		if in.Camera != "" {
			field(w, "Camera", in.Camera)
		}
		if len(in.Tags) > 0 {
			names := make([]string, 0, len(in.Tags))
			for name := range in.Tags {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintln(w, output.LabelStyle.Render("  EXIF:"))
			for _, name := range names {
				fmt.Fprintf(w, "    %s %s\n", output.MutedStyle.Render(name+":"), in.Tags[name])
			}
		}
	}
	return nil
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", output.LabelStyle.Render(fmt.Sprintf("%-9s", label+":")), output.ValueStyle.Render(value))
}
