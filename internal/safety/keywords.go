package safety

import "strings"

// safetyKeywords is the operational-safety lexicon. A message containing any
// of these (case-insensitive substring) triggers an alert dispatch.
var safetyKeywords = []string{
	"hazard", "hazardous", "danger", "dangerous",
	"safety breach", "safety issue", "safety problem", "safety concern",
	"plane problem", "aircraft problem", "airplane issue", "aircraft issue",
	"plane failure", "aircraft failure", "airplane failure",
	"emergency", "emergency landing", "emergency situation",
	"crash", "accident", "incident",
	"mechanical failure", "engine failure", "system failure",
	"critical check", "safety check", "maintenance issue",
	"unsafe", "unsafe condition", "unsafe situation",
	"malfunction", "defect", "fault",
	"airworthiness", "airworthy",
	"aviation safety", "flight safety",
	"broken", "screw", "screws",

	// ground operations
	"operational safety procedures", "ground operations", "ramp safety guidelines",
	"vehicle operations on ramp", "speed limits", "operational hours",
	"pre-operation inspection", "equipment handling", "maintenance schedule",
	"ground support equipment", "gse", "operator training", "training refreshers",

	// fueling
	"fueling procedures", "pre-fueling checks", "pre-fueling inspection",
	"fueling windows", "fueling protocols", "supervision duration",
	"emergency drill", "spill response", "post-fueling procedures",
	"completion reporting", "fueling reports",

	// cargo
	"manifest checks", "manifest", "cargo", "cargo handling",
	"loading and unloading procedures", "verification time",
	"cargo manifest checks", "operation windows", "hazardous materials",
	"handling time", "compliance checks", "training frequency",
	"safety and security", "inspection frequency", "security meetings",

	// safety management system
	"safety policy", "review cycle", "safety management system", "sms",
	"policy review", "risk assessment", "safety governance",
	"committee meetings", "safety audits", "safety performance",

	// flight operations
	"flight operations", "pre-flight checks", "inspection duration",
	"walk-around inspection", "checklists", "in-flight protocols",
	"cabin safety briefings", "emergency exits", "turbulence protocol",
	"post-flight procedures", "report submission", "post-flight inspection",

	// emergency response
	"emergency response", "emergency planning", "drills and simulations",
	"emergency readiness", "response review meetings", "response strategies",

	// training
	"safety training", "safety education", "initial training program",
	"recurrent training", "specialized workshops", "safety knowledge",
	"emergency procedures", "role-specific safety training",

	// reporting
	"safety reporting", "safety analysis", "report review frequency",
	"data analysis sessions", "safety data", "predictive analysis",

	// occupational health
	"occupational health", "workplace assessments", "health check-ups",
	"working environment", "corrective actions", "employee health",

	// environmental and security
	"environmental compliance", "environmental impact", "sustainability",
	"security protocol drills", "security threats", "security preparedness",

	// review and improvement
	"policy updates", "stakeholder feedback", "safety improvements",
	"continuous improvement", "safety enhancement",
}

// IsSafetyRelated reports whether text mentions any operational-safety
// keyword. Pure and side-effect free; runs regardless of the moderation
// verdict and never gates the conversation.
func IsSafetyRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range safetyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
