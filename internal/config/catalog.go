package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/room-booking/internal/scheduler"
)

// Room is one bookable room in the catalog.
type Room struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Capacity  int      `yaml:"capacity"`
	Amenities []string `yaml:"amenities,omitempty"`
}

// SlotWindow overrides the default slot grid. Zero fields keep the default.
type SlotWindow struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Step  int    `yaml:"step"`
}

// Catalog is the YAML document named by ROOMBOOK_CATALOG_FILE.
type Catalog struct {
	Rooms []Room     `yaml:"rooms"`
	Slots SlotWindow `yaml:"slots"`
}

// DefaultRooms returns the catalog used when no file is configured.
func DefaultRooms() []Room {
	return []Room{
		{ID: "room-1", Name: "2204会议室", Capacity: 10},
		{ID: "room-2", Name: "2208会议室", Capacity: 10},
		{ID: "room-3", Name: "2209会议室", Capacity: 10},
	}
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog. Room ids must be present and unique.
func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(catalog.Rooms))
	for i, room := range catalog.Rooms {
		id := strings.TrimSpace(room.ID)
		if id == "" {
			return Catalog{}, fmt.Errorf("catalog room %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			return Catalog{}, fmt.Errorf("catalog room %q is listed twice", id)
		}
		if room.Capacity < 0 {
			return Catalog{}, fmt.Errorf("catalog room %q has negative capacity", id)
		}
		seen[id] = struct{}{}
		catalog.Rooms[i].ID = id
		if strings.TrimSpace(room.Name) == "" {
			catalog.Rooms[i].Name = id
		}
	}
	return catalog, nil
}

// SlotConfig applies the window overrides on top of base.
func (c Catalog) SlotConfig(base scheduler.SlotConfig) scheduler.SlotConfig {
	if c.Slots.Start != "" {
		base.WindowStart = c.Slots.Start
	}
	if c.Slots.End != "" {
		base.WindowEnd = c.Slots.End
	}
	if c.Slots.Step != 0 {
		base.StepMinutes = c.Slots.Step
	}
	return base
}
