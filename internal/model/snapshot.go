package model

// Snapshot is the full persisted state: the shape written to local storage
// on every mutation and the payload of a full-overwrite sync action.
type Snapshot struct {
	Tasks        []Task        `json:"tasks"`
	Logs         []DailyLog    `json:"logs"`
	Observations []Observation `json:"observations"`
	OffDays      []Date        `json:"offDays"`
	AppConfig    AppConfig     `json:"appConfig"`
}

// EmptySnapshot returns a snapshot with allocated (non-nil) collections and
// the default vocabulary, the state of a fresh install.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Tasks:        []Task{},
		Logs:         []DailyLog{},
		Observations: []Observation{},
		OffDays:      []Date{},
		AppConfig:    DefaultConfig(),
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Tasks:        make([]Task, len(s.Tasks)),
		Logs:         append([]DailyLog(nil), s.Logs...),
		Observations: make([]Observation, len(s.Observations)),
		OffDays:      append([]Date(nil), s.OffDays...),
		AppConfig:    s.AppConfig.Clone(),
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = t.Clone()
	}
	for i, o := range s.Observations {
		out.Observations[i] = o
		out.Observations[i].Images = append([]string(nil), o.Images...)
	}
	if s.Logs == nil {
		out.Logs = []DailyLog{}
	}
	if s.OffDays == nil {
		out.OffDays = []Date{}
	}
	return out
}

// Clone returns a deep copy of the config.
func (c AppConfig) Clone() AppConfig {
	out := c
	out.Statuses = append([]OptionDef(nil), c.Statuses...)
	out.Priorities = append([]OptionDef(nil), c.Priorities...)
	out.ObservationStatuses = append([]OptionDef(nil), c.ObservationStatuses...)
	out.HighlightPalette = append([]Highlight(nil), c.HighlightPalette...)
	if c.ColorOverrides != nil {
		out.ColorOverrides = make(map[string]string, len(c.ColorOverrides))
		for k, v := range c.ColorOverrides {
			out.ColorOverrides[k] = v
		}
	}
	return out
}
