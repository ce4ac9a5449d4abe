package intel

import (
	"fmt"
	"sort"
)

// ActionType names one of the fixed response playbook entries.
type ActionType string

const (
	ActionImmediateRescue    ActionType = "IMMEDIATE_RESCUE"
	ActionMedicalResponse    ActionType = "MEDICAL_RESPONSE"
	ActionSupplyDistribution ActionType = "SUPPLY_DISTRIBUTION"
	ActionClusterRescue      ActionType = "CLUSTER_RESCUE"
	ActionWeatherAlert       ActionType = "WEATHER_ALERT"
)

// Target list caps per action.
const (
	maxReportTargets   = 10
	maxDistrictTargets = 5
	maxClusterTargets  = 5
)

// ReportTarget points rescuers at one report.
type ReportTarget struct {
	ID         string `json:"id"`
	Location   string `json:"location"`
	People     int    `json:"people"`
	WaterLevel string `json:"waterLevel,omitempty"`
	Contact    string `json:"contact,omitempty"`
}

// DistrictTarget points a district-wide operation.
type DistrictTarget struct {
	District          string  `json:"district"`
	NeedsFood         int     `json:"needsFood,omitempty"`
	NeedsWater        int     `json:"needsWater,omitempty"`
	TotalPeople       int     `json:"totalPeople,omitempty"`
	CurrentCases      int     `json:"currentCases,omitempty"`
	ForecastRain24hMm float64 `json:"forecastRain24hMm,omitempty"`
}

// ClusterTarget points a coordinated multi-report operation.
type ClusterTarget struct {
	ClusterID     string   `json:"clusterId"`
	Name          string   `json:"name"`
	ReportCount   int      `json:"reportCount"`
	TotalPeople   int      `json:"totalPeople"`
	Centroid      Centroid `json:"centroid"`
	CriticalCount int      `json:"criticalCount"`
}

// Action is one recommended response. Exactly one of the target slices is
// populated, depending on the action type.
type Action struct {
	Priority    int        `json:"priority"`
	Action      ActionType `json:"action"`
	Description string     `json:"description"`

	Reports   []ReportTarget   `json:"reports,omitempty"`
	Districts []DistrictTarget `json:"districts,omitempty"`
	Clusters  []ClusterTarget  `json:"clusters,omitempty"`
}

// RecommendActions runs the fixed rule set over one analysis. Rules fire in
// priority order and each contributes at most one action, so the output is
// never longer than five entries. Priorities must already be ranked most
// urgent first.
func RecommendActions(priorities []ScoredReport, clusters []Cluster, summary Summary) []Action {
	var actions []Action

	var critical, medical []ScoredReport
	for _, r := range priorities {
		if r.UrgencyTier == TierCritical {
			critical = append(critical, r)
		}
		if r.HasMedicalEmergency {
			medical = append(medical, r)
		}
	}

	if len(critical) > 0 {
		actions = append(actions, Action{
			Priority:    1,
			Action:      ActionImmediateRescue,
			Description: fmt.Sprintf("Deploy rescue teams to %d CRITICAL cases immediately", len(critical)),
			Reports:     reportTargets(critical, true),
		})
	}

	if len(medical) > 0 {
		actions = append(actions, Action{
			Priority:    2,
			Action:      ActionMedicalResponse,
			Description: fmt.Sprintf("Dispatch medical teams to %d cases with medical emergencies", len(medical)),
			Reports:     reportTargets(medical, false),
		})
	}

	if summary.ResourceNeeds.NeedsWater > 0 || summary.ResourceNeeds.NeedsFood > 0 {
		needing := append([]DistrictSummary(nil), summary.MostAffectedDistricts...)
		sort.SliceStable(needing, func(i, j int) bool {
			return needing[i].NeedsWater+needing[i].NeedsFood > needing[j].NeedsWater+needing[j].NeedsFood
		})
		if len(needing) > maxDistrictTargets {
			needing = needing[:maxDistrictTargets]
		}

		targets := make([]DistrictTarget, 0, len(needing))
		for _, d := range needing {
			targets = append(targets, DistrictTarget{
				District:    d.District,
				NeedsFood:   d.NeedsFood,
				NeedsWater:  d.NeedsWater,
				TotalPeople: d.TotalPeople,
			})
		}

		actions = append(actions, Action{
			Priority: 3,
			Action:   ActionSupplyDistribution,
			Description: fmt.Sprintf("Distribute supplies: %d need water, %d need food",
				summary.ResourceNeeds.NeedsWater, summary.ResourceNeeds.NeedsFood),
			Districts: targets,
		})
	}

	var urgent []ClusterTarget
	for _, c := range clusters {
		if c.AvgUrgency < 50 {
			continue
		}
		urgent = append(urgent, ClusterTarget{
			ClusterID:     c.ClusterID,
			Name:          c.Name,
			ReportCount:   c.ReportCount,
			TotalPeople:   c.TotalPeople,
			Centroid:      c.Centroid,
			CriticalCount: c.Tiers.Critical,
		})
	}
	if len(urgent) > 0 {
		count := len(urgent)
		if len(urgent) > maxClusterTargets {
			urgent = urgent[:maxClusterTargets]
		}
		actions = append(actions, Action{
			Priority:    4,
			Action:      ActionClusterRescue,
			Description: fmt.Sprintf("Coordinate rescue operations for %d high-urgency clusters", count),
			Clusters:    urgent,
		})
	}

	var escalating []DistrictTarget
	for _, d := range summary.MostAffectedDistricts {
		if d.ForecastRain24hMm > 50 {
			escalating = append(escalating, DistrictTarget{
				District:          d.District,
				CurrentCases:      d.Count,
				ForecastRain24hMm: d.ForecastRain24hMm,
			})
		}
	}
	if len(escalating) > 0 {
		actions = append(actions, Action{
			Priority: 5,
			Action:   ActionWeatherAlert,
			Description: fmt.Sprintf("Issue warnings for %d districts expecting >50mm rain in 24hrs",
				len(escalating)),
			Districts: escalating,
		})
	}

	return actions
}

func reportTargets(reports []ScoredReport, withWaterLevel bool) []ReportTarget {
	if len(reports) > maxReportTargets {
		reports = reports[:maxReportTargets]
	}

	out := make([]ReportTarget, 0, len(reports))
	for _, r := range reports {
		location := r.Address
		if location == "" {
			location = r.District
		}
		t := ReportTarget{
			ID:       r.ID,
			Location: location,
			People:   r.PeopleCount,
			Contact:  r.Phone,
		}
		if withWaterLevel {
			t.WaterLevel = string(r.WaterLevel)
		}
		out = append(out, t)
	}
	return out
}
