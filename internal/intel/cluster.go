package intel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/floodwatch/floodwatch/pkg/geo"
)

// clusterLinkKm is the single-link distance threshold: a report joins a
// cluster when it is within this distance of any member.
const clusterLinkKm = 2.0

// Centroid is the mean position of a cluster's reports.
type Centroid struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Cluster groups nearby emergencies for one rescue routing target.
type Cluster struct {
	ClusterID   string     `json:"clusterId"`
	Name        string     `json:"name"`
	Centroid    Centroid   `json:"centroid"`
	ReportIDs   []string   `json:"reportIds"`
	Districts   []string   `json:"districts"`
	ReportCount int        `json:"reportCount"`
	TotalPeople int        `json:"totalPeople"`
	Tiers       TierCounts `json:"tiers"`
	AvgUrgency  float64    `json:"avgUrgency"`
}

// InDistrict reports whether the cluster touches a district.
func (c Cluster) InDistrict(district string) bool {
	for _, d := range c.Districts {
		if strings.EqualFold(d, district) {
			return true
		}
	}
	return false
}

// BuildClusters groups reports with coordinates by single-link proximity:
// two reports land in the same cluster whenever a chain of members at most
// clusterLinkKm apart connects them. Reports without coordinates are left
// out. Input must already be in analysis order; output is sorted by average
// urgency, worst first.
func BuildClusters(reports []ScoredReport) []Cluster {
	var members [][]ScoredReport

	for _, r := range reports {
		if !r.HasCoordinates() {
			continue
		}

		// Collect every cluster this report links to; more than one
		// match means the report bridges them and they merge.
		var matched []int
		for i, cluster := range members {
			if linksTo(r, cluster) {
				matched = append(matched, i)
			}
		}

		switch len(matched) {
		case 0:
			members = append(members, []ScoredReport{r})
		case 1:
			members[matched[0]] = append(members[matched[0]], r)
		default:
			merged := append(members[matched[0]], r)
			for _, idx := range matched[1:] {
				merged = append(merged, members[idx]...)
			}
			members[matched[0]] = merged
			// Remove the absorbed clusters back to front.
			for i := len(matched) - 1; i >= 1; i-- {
				members = append(members[:matched[i]], members[matched[i]+1:]...)
			}
		}
	}

	clusters := make([]Cluster, 0, len(members))
	for _, group := range members {
		clusters = append(clusters, buildCluster(group))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].AvgUrgency != clusters[j].AvgUrgency {
			return clusters[i].AvgUrgency > clusters[j].AvgUrgency
		}
		return clusters[i].ReportCount > clusters[j].ReportCount
	})
	for i := range clusters {
		clusters[i].ClusterID = fmt.Sprintf("cluster_%d", i+1)
	}
	return clusters
}

func linksTo(r ScoredReport, cluster []ScoredReport) bool {
	for _, m := range cluster {
		if geo.HaversineKm(*r.Latitude, *r.Longitude, *m.Latitude, *m.Longitude) <= clusterLinkKm {
			return true
		}
	}
	return false
}

func buildCluster(group []ScoredReport) Cluster {
	c := Cluster{ReportCount: len(group)}

	var sumLat, sumLon float64
	var sumUrgency int
	districtFreq := make(map[string]int)

	for _, r := range group {
		c.ReportIDs = append(c.ReportIDs, r.ID)
		c.TotalPeople += r.PeopleCount
		c.Tiers.add(r.UrgencyTier)
		sumLat += *r.Latitude
		sumLon += *r.Longitude
		sumUrgency += r.UrgencyScore
		if r.District != "" {
			districtFreq[r.District]++
		}
	}

	c.Centroid = Centroid{
		Latitude:  sumLat / float64(len(group)),
		Longitude: sumLon / float64(len(group)),
	}
	c.AvgUrgency = round1(float64(sumUrgency) / float64(len(group)))

	for district := range districtFreq {
		c.Districts = append(c.Districts, district)
	}
	sort.Strings(c.Districts)

	// Name by the most common district, ties broken alphabetically.
	best := ""
	for _, district := range c.Districts {
		if best == "" || districtFreq[district] > districtFreq[best] {
			best = district
		}
	}
	c.Name = best

	return c
}
