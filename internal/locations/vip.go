package locations

// VIP (Voting Information Project) output serialization, compatible with
// the Google Civic Data polling location shape.

// VIPAddress is the structured address block of a VIP polling location.
type VIPAddress struct {
	LocationName string `json:"locationName,omitempty"`
	Line1        string `json:"line1,omitempty"`
	Line2        string `json:"line2,omitempty"`
	Line3        string `json:"line3,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

// VIPPollingLocation is one polling place in VIP form. Optional fields are
// omitted rather than emitted as nulls.
type VIPPollingLocation struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Address       VIPAddress `json:"address"`
	County        string     `json:"county,omitempty"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	PollingHours  string     `json:"pollingHours,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	VoterServices []string   `json:"voterServices,omitempty"`
	StartDate     string     `json:"startDate,omitempty"`
	EndDate       string     `json:"endDate,omitempty"`
}

// ToVIP converts a stored polling place into its VIP representation.
func ToVIP(pp PollingPlace) VIPPollingLocation {
	out := VIPPollingLocation{
		ID:   pp.ID,
		Name: pp.Name,
		Address: VIPAddress{
			LocationName: pp.LocationName,
			Line1:        pp.AddressLine1,
			Line2:        pp.AddressLine2,
			Line3:        pp.AddressLine3,
			City:         pp.City,
			State:        pp.State,
			Zip:          pp.ZipCode,
		},
		County:       pp.County,
		PollingHours: pp.PollingHours,
		Notes:        pp.Notes,
	}

	// Coordinates only appear when both are known.
	if pp.Latitude != nil && pp.Longitude != nil {
		out.Latitude = pp.Latitude
		out.Longitude = pp.Longitude
	}
	if len(pp.VoterServices) > 0 {
		out.VoterServices = append(out.VoterServices, pp.VoterServices...)
	}
	if pp.StartDate != nil {
		out.StartDate = pp.StartDate.Format("2006-01-02")
	}
	if pp.EndDate != nil {
		out.EndDate = pp.EndDate.Format("2006-01-02")
	}
	return out
}
