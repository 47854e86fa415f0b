package settings

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aristath/fxrisk/internal/analytics"
)

// Service provides settings business logic
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new settings service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// GetAll retrieves all settings with defaults filled in for unset keys.
func (s *Service) GetAll() (map[string]interface{}, error) {
	dbValues, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{})
	for key, defaultValue := range SettingDefaults {
		if dbValue, exists := dbValues[key]; exists {
			if StringSettings[key] {
				result[key] = dbValue
			} else {
				if floatVal, err := strconv.ParseFloat(dbValue, 64); err == nil {
					result[key] = floatVal
				} else {
					result[key] = defaultValue
				}
			}
		} else {
			result[key] = defaultValue
		}
	}

	return result, nil
}

// Get retrieves a setting value with fallback to its default.
func (s *Service) Get(key string) (interface{}, error) {
	dbValue, err := s.repo.Get(key)
	if err != nil {
		return nil, err
	}

	if dbValue != nil {
		if StringSettings[key] {
			return *dbValue, nil
		}
		if floatVal, err := strconv.ParseFloat(*dbValue, 64); err == nil {
			return floatVal, nil
		}
	}

	defaultValue, exists := SettingDefaults[key]
	if !exists {
		return nil, fmt.Errorf("unknown setting: %s", key)
	}
	return defaultValue, nil
}

// Set updates a setting value with validation.
func (s *Service) Set(key string, value interface{}) error {
	if _, exists := SettingDefaults[key]; !exists {
		return fmt.Errorf("unknown setting: %s", key)
	}

	// Deviation thresholds are fractions of the budget rate
	if key == "deviation_breach_threshold" ||
		key == "deviation_warning_threshold" ||
		key == "target_met_threshold" {
		floatVal, ok := value.(float64)
		if !ok {
			return fmt.Errorf("%s must be a number", key)
		}
		if floatVal <= 0 || floatVal >= 1 {
			return fmt.Errorf("%s must be between 0 and 1 exclusive, got %v", key, floatVal)
		}
	}

	if key == "rate_refresh_minutes" {
		floatVal, ok := value.(float64)
		if !ok {
			return fmt.Errorf("rate_refresh_minutes must be a number")
		}
		if floatVal < 1 {
			return fmt.Errorf("rate_refresh_minutes must be at least 1, got %v", floatVal)
		}
	}

	if key == "risk_tolerance" {
		tolerance, ok := value.(string)
		if !ok {
			return fmt.Errorf("risk_tolerance must be a string")
		}
		if tolerance != "low" && tolerance != "moderate" && tolerance != "high" {
			return fmt.Errorf("invalid risk tolerance: %s. Must be 'low', 'moderate' or 'high'", tolerance)
		}
	}

	if key == "r2_backup_schedule" {
		schedule, ok := value.(string)
		if !ok {
			return fmt.Errorf("r2_backup_schedule must be a string")
		}
		if schedule != "daily" && schedule != "weekly" && schedule != "monthly" {
			return fmt.Errorf("invalid backup schedule: %s. Must be 'daily', 'weekly' or 'monthly'", schedule)
		}
	}

	if key == "r2_backup_retention_days" {
		floatVal, ok := value.(float64)
		if !ok {
			return fmt.Errorf("r2_backup_retention_days must be a number")
		}
		if floatVal < 0 {
			return fmt.Errorf("r2_backup_retention_days must be non-negative")
		}
	}

	// Convert to string for storage
	var strValue string
	switch v := value.(type) {
	case string:
		strValue = v
	case float64:
		strValue = fmt.Sprintf("%f", v)
	case int:
		strValue = fmt.Sprintf("%d", v)
	case bool:
		strValue = strconv.FormatBool(v)
	default:
		return fmt.Errorf("unsupported value type for setting %s", key)
	}

	return s.repo.Set(key, strValue, nil)
}

// RiskTolerance returns the configured desk risk appetite, defaulting to
// moderate when unset or set to an unknown value.
func (s *Service) RiskTolerance() string {
	v, err := s.repo.Get("risk_tolerance")
	if err == nil && v != nil {
		switch *v {
		case "low", "moderate", "high":
			return *v
		}
	}
	return "moderate"
}

// Thresholds returns the current deviation thresholds, falling back to the
// built-in defaults for any key that is unset or unparseable.
func (s *Service) Thresholds() analytics.Thresholds {
	th := analytics.DefaultThresholds()

	if v, err := s.repo.GetFloat("deviation_breach_threshold", th.Breach); err == nil {
		th.Breach = v
	}
	if v, err := s.repo.GetFloat("deviation_warning_threshold", th.Warning); err == nil {
		th.Warning = v
	}
	if v, err := s.repo.GetFloat("target_met_threshold", th.Target); err == nil {
		th.Target = v
	}

	return th
}
