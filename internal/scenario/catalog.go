package scenario

// BuiltIn returns the predefined battle scenarios.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"breach-and-defend": {
			ID:            "breach-and-defend",
			Name:          "Breach and Defend",
			Description:   "A full intrusion arc from reconnaissance to data exfiltration against a staffed blue team.",
			TargetSystems: []string{"auth-service", "payments-api", "user-db", "admin-panel", "object-store"},
			Multipliers:   Multipliers{Red: 1.0, Blue: 1.0},
			AutoAttack:    AutoAttack{Enabled: true, IntervalSeconds: 5},
			Phases: []Phase{
				{
					Name:            "recon",
					DisplayName:     "Reconnaissance",
					DurationSeconds: 60,
					Attacks:         []string{"port_scan", "honeypot_probe"},
					Defenses:        []string{"firewall", "honeypot"},
				},
				{
					Name:            "intrusion",
					DisplayName:     "Initial Intrusion",
					DurationSeconds: 120,
					Attacks:         []string{"brute_force", "sql_injection", "xss", "phishing"},
					Defenses:        []string{"waf", "rate_limiter", "mfa", "input_validation"},
				},
				{
					Name:            "escalation",
					DisplayName:     "Privilege Escalation",
					DurationSeconds: 120,
					Attacks:         []string{"idor", "privilege_escalation", "brute_force"},
					Defenses:        []string{"ids", "access_control", "rate_limiter"},
				},
				{
					Name:            "exfiltration",
					DisplayName:     "Data Exfiltration",
					DurationSeconds: 60,
					Attacks:         []string{"data_exfiltration", "ddos"},
					Defenses:        []string{"ids", "firewall", "honeypot"},
				},
			},
		},
		"red-blitz": {
			ID:            "red-blitz",
			Name:          "Red Blitz",
			Description:   "A fast offensive drill with thin defenses and boosted red scoring.",
			TargetSystems: []string{"auth-service", "payments-api", "admin-panel"},
			Multipliers:   Multipliers{Red: 1.5, Blue: 1.0},
			AutoAttack:    AutoAttack{Enabled: true, IntervalSeconds: 3},
			Phases: []Phase{
				{
					Name:            "opening",
					DisplayName:     "Opening Volley",
					DurationSeconds: 60,
					Attacks:         []string{"port_scan", "brute_force", "xss"},
					Defenses:        []string{"rate_limiter"},
				},
				{
					Name:            "assault",
					DisplayName:     "Full Assault",
					DurationSeconds: 120,
					Attacks:         []string{"sql_injection", "idor", "ddos", "privilege_escalation"},
					Defenses:        []string{"waf", "firewall"},
				},
				{
					Name:            "smash",
					DisplayName:     "Smash and Grab",
					DurationSeconds: 60,
					Attacks:         []string{"data_exfiltration", "privilege_escalation"},
					Defenses:        []string{"ids"},
				},
			},
		},
		"blue-fortress": {
			ID:            "blue-fortress",
			Name:          "Blue Fortress",
			Description:   "A hardened perimeter exercise where every control is on and blue scoring is boosted.",
			TargetSystems: []string{"auth-service", "user-db", "object-store", "admin-panel"},
			Multipliers:   Multipliers{Red: 1.0, Blue: 1.25},
			AutoAttack:    AutoAttack{Enabled: true, IntervalSeconds: 4},
			Phases: []Phase{
				{
					Name:            "probing",
					DisplayName:     "Perimeter Probing",
					DurationSeconds: 90,
					Attacks:         []string{"port_scan", "honeypot_probe", "brute_force"},
					Defenses:        []string{"firewall", "honeypot", "rate_limiter", "mfa"},
				},
				{
					Name:            "siege",
					DisplayName:     "Siege",
					DurationSeconds: 120,
					Attacks:         []string{"sql_injection", "xss", "idor", "ddos"},
					Defenses:        []string{"waf", "input_validation", "access_control", "firewall", "rate_limiter"},
				},
				{
					Name:            "last-stand",
					DisplayName:     "Last Stand",
					DurationSeconds: 90,
					Attacks:         []string{"privilege_escalation", "data_exfiltration", "ddos"},
					Defenses:        []string{"ids", "access_control", "honeypot", "firewall"},
				},
			},
		},
	}
}
