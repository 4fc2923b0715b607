package nodeinfo

import "encoding/json"

// FederationLists is the normalized three-way peer split. Instances on
// older API generations only report a flat list, which is treated as
// linked with the other categories empty.
type FederationLists struct {
	Linked  []string `json:"linked"`
	Allowed []string `json:"allowed"`
	Blocked []string `json:"blocked"`
}

// federationV19 is the newer federation response: peers are objects
// carrying metadata alongside the domain.
type federationV19 struct {
	FederatedInstances *struct {
		Linked  []peerInstance `json:"linked"`
		Allowed []peerInstance `json:"allowed"`
		Blocked []peerInstance `json:"blocked"`
	} `json:"federated_instances"`
}

// peerInstance is one peer entry in the newer generation. Only the
// domain matters for crawling; the rest is dropped.
type peerInstance struct {
	Domain string `json:"domain"`
}

// federationV18 is the older federation response: peers are bare domain
// strings.
type federationV18 struct {
	FederatedInstances *flatFederation `json:"federated_instances"`
}

// ParseFederation decodes a federation-peers response, newest generation
// first. An instance with federation disabled reports a null peer set;
// that decodes to empty lists, not an error.
func ParseFederation(data []byte) (*FederationLists, error) {
	var f19 federationV19
	if err := json.Unmarshal(data, &f19); err == nil && f19.FederatedInstances != nil {
		return &FederationLists{
			Linked:  peerDomains(f19.FederatedInstances.Linked),
			Allowed: peerDomains(f19.FederatedInstances.Allowed),
			Blocked: peerDomains(f19.FederatedInstances.Blocked),
		}, nil
	}

	var f18 federationV18
	if err := json.Unmarshal(data, &f18); err == nil {
		if f18.FederatedInstances == nil {
			return &FederationLists{}, nil
		}
		return &FederationLists{
			Linked:  f18.FederatedInstances.Linked,
			Allowed: f18.FederatedInstances.Allowed,
			Blocked: f18.FederatedInstances.Blocked,
		}, nil
	}

	return nil, ErrUnknownSchema
}

func peerDomains(peers []peerInstance) []string {
	if len(peers) == 0 {
		return nil
	}
	domains := make([]string, 0, len(peers))
	for _, p := range peers {
		if p.Domain != "" {
			domains = append(domains, p.Domain)
		}
	}
	return domains
}
