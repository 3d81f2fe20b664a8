package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:     30000, // 30 seconds
		Redirect:    "follow",
		ValidateSSL: BoolPtr(true),
		Verbose:     BoolPtr(false),
		NoColor:     BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.CookiesFile == defaults.CookiesFile &&
		c.Encoding == defaults.Encoding &&
		c.Timeout == defaults.Timeout &&
		c.Redirect == defaults.Redirect &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		c.RateLimit == defaults.RateLimit &&
		c.ReturnType == defaults.ReturnType &&
		len(c.Headers) == 0 &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
