package model

type PublishResult struct {
	ChannelID    string `json:"channel_id"`
	Succeeded    bool   `json:"succeeded"`
	StatusDetail string `json:"status_detail"`
}

// PublishReport holds one result per attempted channel, in request order.
type PublishReport struct {
	Results []PublishResult `json:"results"`
}

// OK reports whether every channel succeeded. A report with no results is OK.
func (r PublishReport) OK() bool {
	for _, res := range r.Results {
		if !res.Succeeded {
			return false
		}
	}
	return true
}

func (r PublishReport) Failed() []PublishResult {
	var out []PublishResult
	for _, res := range r.Results {
		if !res.Succeeded {
			out = append(out, res)
		}
	}
	return out
}

func (r PublishReport) Attempted() int {
	return len(r.Results)
}
