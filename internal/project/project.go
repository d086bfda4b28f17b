// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CurrentVersion is written by Save.
const CurrentVersion = 1

// File represents an annotation project file (.annproj).
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// Paths relative to the project file
	ImagePath    string `json:"image,omitempty"`
	DocumentPath string `json:"document,omitempty"`

	// Optional config file applied when the project opens
	ConfigPath string `json:"config,omitempty"`

	// Last view, restored on open
	View ViewState `json:"view"`
}

// ViewState is the viewer position saved with a project.
type ViewState struct {
	Zoom    float64 `json:"zoom,omitempty"`
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
}

// New creates a new project file.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		View:     ViewState{Zoom: 1},
	}
}

// Load loads a project from a .annproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}
	if proj.Version > CurrentVersion {
		return nil, fmt.Errorf("project %s has version %d, newest supported is %d", path, proj.Version, CurrentVersion)
	}
	if proj.View.Zoom <= 0 {
		proj.View.Zoom = 1
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	p.Version = CurrentVersion

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func relativeTo(projectPath, path string) string {
	rel, err := filepath.Rel(filepath.Dir(projectPath), path)
	if err != nil {
		return path
	}
	return rel
}

func resolve(projectPath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(projectPath), path)
}

// SetImage sets the slide image path (relative to project).
func (p *File) SetImage(projectPath, imagePath string) {
	p.ImagePath = relativeTo(projectPath, imagePath)
	p.Modified = time.Now()
}

// SetDocument sets the annotation document path (relative to project).
func (p *File) SetDocument(projectPath, docPath string) {
	p.DocumentPath = relativeTo(projectPath, docPath)
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the slide image.
func (p *File) GetImagePath(projectPath string) string {
	return resolve(projectPath, p.ImagePath)
}

// GetDocumentPath returns the absolute path to the annotation document.
func (p *File) GetDocumentPath(projectPath string) string {
	if p.DocumentPath == "" {
		// Default: project_name_annotations.geojson
		base := projectPath[:len(projectPath)-len(filepath.Ext(projectPath))]
		return base + "_annotations.geojson"
	}
	return resolve(projectPath, p.DocumentPath)
}

// GetConfigPath returns the absolute path to the project config, or "".
func (p *File) GetConfigPath(projectPath string) string {
	return resolve(projectPath, p.ConfigPath)
}
