package traffic

// RoadPoint is a fixed probe point on a major road.
type RoadPoint struct {
	Location  string
	RoadName  string
	Latitude  float64
	Longitude float64
}

// MonitoredRoads are the expressway, city and inter-city probe points polled
// for flow data. Chosen to cover the evacuation corridors out of the wet-zone
// districts.
var MonitoredRoads = []RoadPoint{
	{Location: "Kottawa Interchange", RoadName: "E01 Southern Expressway", Latitude: 6.8412, Longitude: 79.9644},
	{Location: "Kadawatha Interchange", RoadName: "E03 Airport Expressway", Latitude: 7.0012, Longitude: 79.9532},
	{Location: "Peliyagoda", RoadName: "A1 Colombo-Kandy Road", Latitude: 6.9664, Longitude: 79.8898},
	{Location: "Kaduwela Bridge", RoadName: "B240 Low Level Road", Latitude: 6.9336, Longitude: 79.9842},
	{Location: "Dehiwala", RoadName: "A2 Galle Road", Latitude: 6.8566, Longitude: 79.8652},
	{Location: "Borella Junction", RoadName: "Baseline Road", Latitude: 6.9147, Longitude: 79.8778},
	{Location: "Nittambuwa", RoadName: "A1 Colombo-Kandy Road", Latitude: 7.1435, Longitude: 80.0953},
	{Location: "Ratnapura Town", RoadName: "A4 High Level Road", Latitude: 6.6828, Longitude: 80.3992},
	{Location: "Gampola", RoadName: "A5 Peradeniya-Badulla Road", Latitude: 7.1644, Longitude: 80.5736},
	{Location: "Vavuniya", RoadName: "A9 Kandy-Jaffna Road", Latitude: 8.7514, Longitude: 80.4971},
	{Location: "Galle Town", RoadName: "A2 Galle Road", Latitude: 6.0329, Longitude: 80.2168},
	{Location: "Batticaloa Bridge", RoadName: "A15 Batticaloa-Trincomalee Road", Latitude: 7.7102, Longitude: 81.6924},
}
