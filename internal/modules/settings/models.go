package settings

// SettingDefaults holds all default values for configurable settings.
// Values stored in config.db override these; these override nothing (env
// variables are applied first, at startup, by the config package).
var SettingDefaults = map[string]interface{}{
	// Rate feed
	"ratefeed_api_key":     "",   // REST rate feed API key (empty = keyless tier)
	"rate_refresh_minutes": 15.0, // Minutes between scheduled market-rate refreshes

	// Deviation thresholds, as fractions of the budget rate
	"deviation_breach_threshold":  0.05, // Unfavorable deviation beyond this is BREACH
	"deviation_warning_threshold": 0.02, // Unfavorable deviation beyond this is WARNING
	"target_met_threshold":        0.02, // Favorable deviation beyond this is TARGET_MET

	// Hedging advisor
	"risk_tolerance": "moderate", // Desk risk appetite: "low", "moderate" or "high"

	// Cloudflare R2 backup settings
	"r2_account_id":            "",      // Cloudflare R2 account ID
	"r2_access_key_id":         "",      // R2 access key ID
	"r2_secret_access_key":     "",      // R2 secret access key
	"r2_bucket_name":           "",      // R2 bucket name
	"r2_backup_enabled":        0.0,     // 1.0 = enabled, 0.0 = disabled
	"r2_backup_schedule":       "daily", // Backup schedule: "daily", "weekly", or "monthly"
	"r2_backup_retention_days": 90.0,    // Days to keep backups (0 = keep forever)
}

// StringSettings defines which settings should be treated as strings rather than floats
var StringSettings = map[string]bool{
	"ratefeed_api_key":     true,
	"risk_tolerance":       true,
	"r2_account_id":        true,
	"r2_access_key_id":     true,
	"r2_secret_access_key": true,
	"r2_bucket_name":       true,
	"r2_backup_schedule":   true,
}

// SettingDescriptions holds human-readable descriptions for selected settings
var SettingDescriptions = map[string]string{
	"ratefeed_api_key":            "API key for the market rate feed. Empty uses the keyless free tier (lower request limits).",
	"rate_refresh_minutes":        "Minutes between scheduled market-rate refreshes (minimum 1).",
	"deviation_breach_threshold":  "Unfavorable deviation beyond this fraction of the budget rate marks an exposure BREACH (0.05 = 5%).",
	"deviation_warning_threshold": "Unfavorable deviation beyond this fraction marks an exposure WARNING (0.02 = 2%).",
	"target_met_threshold":        "Favorable deviation beyond this fraction marks an exposure TARGET_MET (0.02 = 2%).",
	"risk_tolerance":              "Desk risk appetite used by the hedging advisor when a request does not set its own: low, moderate or high.",
}

// SettingUpdate represents a setting value update request
type SettingUpdate struct {
	Value interface{} `json:"value"`
}
