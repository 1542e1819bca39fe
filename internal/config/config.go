package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/carogaltier/medscheduler/pkg/core/generator"
	"github.com/carogaltier/medscheduler/pkg/core/model"
)

const (
	dateLayout     = "2006-01-02"
	configFileBase = "medscheduler_config"
	defaultAddr    = ":8080"
)

// ErrConfigNotFound is returned when no config file exists in the searched locations
var ErrConfigNotFound = errors.New("config file not found")

// DateRange is an inclusive span of days, written as YYYY-MM-DD
type DateRange struct {
	Start string `yaml:"start" json:"start" validate:"required,datetime=2006-01-02"`
	End   string `yaml:"end" json:"end" validate:"required,datetime=2006-01-02"`
}

// HourBlock is a working period in hours from midnight
type HourBlock struct {
	Start float64 `yaml:"start" json:"start" validate:"min=0,max=24"`
	End   float64 `yaml:"end" json:"end" validate:"gtfield=Start,max=24"`
}

// AgeGenderRow is one band of the age-sex table
type AgeGenderRow struct {
	AgeBand string  `yaml:"ageBand" json:"age_band" validate:"required"`
	Female  float64 `yaml:"female" json:"female" validate:"min=0"`
	Male    float64 `yaml:"male" json:"male" validate:"min=0"`
}

// CustomColumn is a categorical patient column applied after generation
type CustomColumn struct {
	Name         string    `yaml:"name" json:"name" validate:"required"`
	Categories   []string  `yaml:"categories" json:"categories" validate:"required,min=1,dive,required"`
	Distribution string    `yaml:"distribution,omitempty" json:"distribution,omitempty" validate:"omitempty,oneof=uniform normal pareto"`
	Probs        []float64 `yaml:"probs,omitempty" json:"probs,omitempty" validate:"omitempty,dive,min=0"`
}

// HTTPConfig holds the serve command settings
type HTTPConfig struct {
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DateRanges          []DateRange        `yaml:"dateRanges" json:"date_ranges" validate:"required,min=1,dive"`
	RefDate             string             `yaml:"refDate" json:"ref_date" validate:"required,datetime=2006-01-02"`
	WorkingDays         []int              `yaml:"workingDays" json:"working_days" validate:"unique,dive,min=0,max=6"`
	WorkingHours        []HourBlock        `yaml:"workingHours" json:"working_hours" validate:"required,min=1,dive"`
	AppointmentsPerHour int                `yaml:"appointmentsPerHour" json:"appointments_per_hour" validate:"slotdivisor"`
	FillRate            float64            `yaml:"fillRate" json:"fill_rate" validate:"min=0.3,max=1"`
	BookingHorizon      int                `yaml:"bookingHorizon" json:"booking_horizon" validate:"min=7,max=90"`
	MedianLeadTime      int                `yaml:"medianLeadTime" json:"median_lead_time" validate:"min=1,ltefield=BookingHorizon"`
	StatusRates         map[string]float64 `yaml:"statusRates" json:"status_rates" validate:"required,len=4,dive,keys,oneof=attended cancelled 'did not attend' unknown,endkeys,min=0"`
	RebookCategory      string             `yaml:"rebookCategory" json:"rebook_category" validate:"oneof=min med max"`
	CheckInTimeMean     float64            `yaml:"checkInTimeMean" json:"check_in_time_mean" validate:"min=-60,max=30"`
	VisitsPerYear       float64            `yaml:"visitsPerYear" json:"visits_per_year" validate:"gt=0,max=12"`
	FirstAttendance     float64            `yaml:"firstAttendance" json:"first_attendance" validate:"min=0,max=1"`
	MonthWeights        Weights            `yaml:"monthWeights" json:"month_weights"`
	WeekdayWeights      Weights            `yaml:"weekdayWeights" json:"weekday_weights"`
	BinSize             int                `yaml:"binSize" json:"bin_size" validate:"min=1,max=20"`
	LowerCutoff         int                `yaml:"lowerCutoff" json:"lower_cutoff" validate:"min=0,ltfield=UpperCutoff"`
	UpperCutoff         int                `yaml:"upperCutoff" json:"upper_cutoff" validate:"max=100"`
	Truncated           bool               `yaml:"truncated" json:"truncated"`
	Seed                *uint64            `yaml:"seed" json:"seed"`
	Noise               float64            `yaml:"noise" json:"noise" validate:"min=0"`
	AgeGenderProbs      []AgeGenderRow     `yaml:"ageGenderProbs" json:"age_gender_probs" validate:"required,min=1,dive"`
	Closures            []string           `yaml:"closures,omitempty" json:"closures,omitempty" validate:"dive,required"`
	CustomColumns       []CustomColumn     `yaml:"customColumns,omitempty" json:"custom_columns,omitempty" validate:"dive"`
	Publish             PublishConfig      `yaml:"publish,omitempty" json:"-"`
	HTTP                HTTPConfig         `yaml:"http,omitempty" json:"-"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("slotdivisor", func(fl validator.FieldLevel) bool {
		return slices.Contains(generator.AllowedAppointmentsPerHour, int(fl.Field().Int()))
	})
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := FromGenerator(generator.DefaultConfig())
	cfg.HTTP.Addr = defaultAddr
	return cfg
}

// LoadWithEnv loads and validates medscheduler_config.<env>.yaml (medscheduler_config.yaml when env is "").
// The current directory is searched first, then the user's home directory.
// MEDSCHED_CONFIG, when set (directly or through .env), overrides the search.
func LoadWithEnv(env string) (*Config, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("MEDSCHED_CONFIG")
	if configPath == "" {
		var err error
		configPath, err = findConfigFile(env)
		if err != nil {
			return nil, fmt.Errorf("failed to find config file: %w", err)
		}
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like LoadWithEnv but falls back to Default, with environment
// overrides applied, when no config file exists. found reports whether a file was read.
func LoadOrDefault(env string) (cfg *Config, found bool, err error) {
	cfg, err = LoadWithEnv(env)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return nil, false, err
	}

	cfg = Default()
	if err := applyEnv(cfg); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// LoadFromPath loads a config file over the defaults and validates the result
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate runs the struct rules, the closure rrule syntax check, and the generator's cross-field checks
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, rule := range cfg.Closures {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return fmt.Errorf("invalid rrule in closures[%d]: %w", i, err)
		}
	}

	genCfg, err := cfg.ToGenerator()
	if err != nil {
		return err
	}
	if err := generator.ValidateConfig(genCfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// applyEnv overrides the seed, HTTP address and publish settings from the environment
func applyEnv(cfg *Config) error {
	if v := os.Getenv("MEDSCHED_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MEDSCHED_SEED %q: %w", v, err)
		}
		cfg.Seed = &seed
	}
	cfg.HTTP.Addr = getEnv("MEDSCHED_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.Publish.SpreadsheetID = getEnv("MEDSCHED_SPREADSHEET_ID", cfg.Publish.SpreadsheetID)
	cfg.Publish.OAuthClientPath = getEnv("MEDSCHED_OAUTH_CLIENT", cfg.Publish.OAuthClientPath)
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ToGenerator converts the file representation into the generator's input
func (c *Config) ToGenerator() (*generator.Config, error) {
	ranges := make([]generator.DateRange, len(c.DateRanges))
	for i, r := range c.DateRanges {
		start, err := time.Parse(dateLayout, r.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid dateRanges[%d].start: %w", i, err)
		}
		end, err := time.Parse(dateLayout, r.End)
		if err != nil {
			return nil, fmt.Errorf("invalid dateRanges[%d].end: %w", i, err)
		}
		ranges[i] = generator.DateRange{Start: start, End: end}
	}
	ref, err := time.Parse(dateLayout, c.RefDate)
	if err != nil {
		return nil, fmt.Errorf("invalid refDate: %w", err)
	}

	hours := make([]generator.HourBlock, len(c.WorkingHours))
	for i, h := range c.WorkingHours {
		hours[i] = generator.HourBlock{Start: h.Start, End: h.End}
	}

	rates := make(map[model.Status]float64, len(c.StatusRates))
	for k, v := range c.StatusRates {
		rates[model.Status(k)] = v
	}

	months, err := c.MonthWeights.Resolve(12, 1)
	if err != nil {
		return nil, fmt.Errorf("invalid monthWeights: %w", err)
	}
	weekdays, err := c.WeekdayWeights.Resolve(7, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid weekdayWeights: %w", err)
	}

	ages := make([]generator.AgeGenderProb, len(c.AgeGenderProbs))
	for i, a := range c.AgeGenderProbs {
		ages[i] = generator.AgeGenderProb{AgeBand: a.AgeBand, Female: a.Female, Male: a.Male}
	}

	var seed *uint64
	if c.Seed != nil {
		s := *c.Seed
		seed = &s
	}

	return &generator.Config{
		DateRanges:          ranges,
		RefDate:             ref,
		WorkingDays:         append([]int{}, c.WorkingDays...),
		WorkingHours:        hours,
		AppointmentsPerHour: c.AppointmentsPerHour,
		FillRate:            c.FillRate,
		BookingHorizon:      c.BookingHorizon,
		MedianLeadTime:      c.MedianLeadTime,
		StatusRates:         rates,
		RebookCategory:      generator.RebookCategory(c.RebookCategory),
		CheckInTimeMean:     c.CheckInTimeMean,
		VisitsPerYear:       c.VisitsPerYear,
		FirstAttendance:     c.FirstAttendance,
		MonthWeights:        months,
		WeekdayWeights:      weekdays,
		BinSize:             c.BinSize,
		LowerCutoff:         c.LowerCutoff,
		UpperCutoff:         c.UpperCutoff,
		Truncated:           c.Truncated,
		Seed:                seed,
		Noise:               c.Noise,
		AgeGenderProbs:      ages,
		Closures:            append([]string(nil), c.Closures...),
	}, nil
}

// GeneratorColumns converts the configured custom columns
func (c *Config) GeneratorColumns() []generator.CustomColumn {
	cols := make([]generator.CustomColumn, len(c.CustomColumns))
	for i, col := range c.CustomColumns {
		cols[i] = generator.CustomColumn{
			Name:         col.Name,
			Categories:   col.Categories,
			Distribution: generator.DistributionType(col.Distribution),
			Probs:        col.Probs,
		}
	}
	return cols
}

// FromGenerator converts a generator configuration back into its file representation
func FromGenerator(g *generator.Config) *Config {
	ranges := make([]DateRange, len(g.DateRanges))
	for i, r := range g.DateRanges {
		ranges[i] = DateRange{Start: r.Start.Format(dateLayout), End: r.End.Format(dateLayout)}
	}
	hours := make([]HourBlock, len(g.WorkingHours))
	for i, h := range g.WorkingHours {
		hours[i] = HourBlock{Start: h.Start, End: h.End}
	}
	rates := make(map[string]float64, len(g.StatusRates))
	for k, v := range g.StatusRates {
		rates[string(k)] = v
	}
	ages := make([]AgeGenderRow, len(g.AgeGenderProbs))
	for i, a := range g.AgeGenderProbs {
		ages[i] = AgeGenderRow{AgeBand: a.AgeBand, Female: a.Female, Male: a.Male}
	}

	return &Config{
		DateRanges:          ranges,
		RefDate:             g.RefDate.Format(dateLayout),
		WorkingDays:         append([]int{}, g.WorkingDays...),
		WorkingHours:        hours,
		AppointmentsPerHour: g.AppointmentsPerHour,
		FillRate:            g.FillRate,
		BookingHorizon:      g.BookingHorizon,
		MedianLeadTime:      g.MedianLeadTime,
		StatusRates:         rates,
		RebookCategory:      string(g.RebookCategory),
		CheckInTimeMean:     g.CheckInTimeMean,
		VisitsPerYear:       g.VisitsPerYear,
		FirstAttendance:     g.FirstAttendance,
		MonthWeights:        Weights{Keyed: g.MonthWeights},
		WeekdayWeights:      Weights{Keyed: g.WeekdayWeights},
		BinSize:             g.BinSize,
		LowerCutoff:         g.LowerCutoff,
		UpperCutoff:         g.UpperCutoff,
		Truncated:           g.Truncated,
		Seed:                g.Seed,
		Noise:               g.Noise,
		AgeGenderProbs:      ages,
		Closures:            g.Closures,
	}
}

// findConfigFile searches for medscheduler_config.yaml, or medscheduler_config.<env>.yaml when env is set
func findConfigFile(env string) (string, error) {
	name := configFileBase + ".yaml"
	if env != "" {
		name = configFileBase + "." + env + ".yaml"
	}
	return findFile(name, ErrConfigNotFound)
}

// findFile looks for name in the current directory, then the user's home directory
func findFile(name string, notFound error) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%w: %s not in current directory or home directory", notFound, name)
}
