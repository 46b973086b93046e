package main

import "strings"

// Policy is the persisted signing policy document. An absent document loads
// as the zero value, which allows every key ref unless it is denied.
type Policy struct {
	AllowKeyRefs []string `json:"allowKeyRefs"`
	DenyKeyRefs  []string `json:"denyKeyRefs"`
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Code    ErrorCode
	Message string
}

var decisionAllow = Decision{Allowed: true}

// Normalize filters out blank entries from both lists. Persisted documents may
// contain padding or accidental empty strings; they must never match a key ref.
func (p Policy) Normalize() Policy {
	return Policy{
		AllowKeyRefs: filterBlank(p.AllowKeyRefs),
		DenyKeyRefs:  filterBlank(p.DenyKeyRefs),
	}
}

// Decide evaluates a key ref against the policy. The deny list is absolute:
// a ref present in both lists is denied. A non-empty allow list makes
// allow-listing opt-in; an empty allow list means allow unless denied.
func Decide(policy Policy, keyRef string) Decision {
	for _, denied := range policy.DenyKeyRefs {
		if keyRef == denied {
			return Decision{
				Code:    CodeKeyRefDenied,
				Message: "key ref is denied by policy",
			}
		}
	}
	if len(policy.AllowKeyRefs) > 0 {
		for _, allowed := range policy.AllowKeyRefs {
			if keyRef == allowed {
				return decisionAllow
			}
		}
		return Decision{
			Code:    CodeKeyRefNotAllowlisted,
			Message: "key ref is not on the allow list",
		}
	}
	return decisionAllow
}

func filterBlank(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}
