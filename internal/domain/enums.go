package domain

// ItemStatus tracks a facility list item through the resolution pipeline.
type ItemStatus string

const (
	ItemStatusUploaded          ItemStatus = "UPLOADED"
	ItemStatusParsed            ItemStatus = "PARSED"
	ItemStatusGeocoded          ItemStatus = "GEOCODED"
	ItemStatusGeocodedNoResults ItemStatus = "GEOCODED_NO_RESULTS"
	ItemStatusMatched           ItemStatus = "MATCHED"
	ItemStatusPotentialMatch    ItemStatus = "POTENTIAL_MATCH"
	ItemStatusConfirmedMatch    ItemStatus = "CONFIRMED_MATCH"
	ItemStatusError             ItemStatus = "ERROR"
	ItemStatusErrorParsing      ItemStatus = "ERROR_PARSING"
	ItemStatusErrorGeocoding    ItemStatus = "ERROR_GEOCODING"
	ItemStatusErrorMatching     ItemStatus = "ERROR_MATCHING"
)

func (s ItemStatus) String() string { return string(s) }

func (s ItemStatus) IsValid() bool {
	_, ok := itemTransitions[s]
	return ok
}

// IsError reports whether the status is one of the absorbing error states.
func (s ItemStatus) IsError() bool {
	switch s {
	case ItemStatusError, ItemStatusErrorParsing, ItemStatusErrorGeocoding, ItemStatusErrorMatching:
		return true
	}
	return false
}

// IsTerminal reports whether no further pipeline stage may advance the item.
// POTENTIAL_MATCH is not terminal: adjudication still has to resolve it.
func (s ItemStatus) IsTerminal() bool {
	switch s {
	case ItemStatusMatched, ItemStatusConfirmedMatch:
		return true
	}
	return s.IsError()
}

// HasFacility reports whether the status requires a non-nil facility link.
// Error states must never carry one.
func (s ItemStatus) HasFacility() bool {
	return s == ItemStatusMatched || s == ItemStatusConfirmedMatch
}

// itemTransitions is the closed transition table for the item state machine.
// Every in-progress state may additionally fall into its stage error state
// or the generic ERROR state.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusUploaded: {
		ItemStatusParsed,
		ItemStatusErrorParsing,
		ItemStatusError,
	},
	ItemStatusParsed: {
		ItemStatusGeocoded,
		ItemStatusGeocodedNoResults,
		ItemStatusErrorGeocoding,
		ItemStatusError,
	},
	ItemStatusGeocoded: {
		ItemStatusMatched,
		ItemStatusPotentialMatch,
		ItemStatusErrorMatching,
		ItemStatusError,
	},
	ItemStatusGeocodedNoResults: {
		ItemStatusMatched,
		ItemStatusPotentialMatch,
		ItemStatusErrorMatching,
		ItemStatusError,
	},
	ItemStatusPotentialMatch: {
		ItemStatusConfirmedMatch,
		ItemStatusErrorMatching,
	},
	ItemStatusMatched:        {},
	ItemStatusConfirmedMatch: {},
	ItemStatusError:          {},
	ItemStatusErrorParsing:   {},
	ItemStatusErrorGeocoding: {},
	ItemStatusErrorMatching:  {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	for _, allowed := range itemTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// MatchStatus is the adjudication state of a candidate match.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "PENDING"
	MatchStatusAutomatic MatchStatus = "AUTOMATIC"
	MatchStatusConfirmed MatchStatus = "CONFIRMED"
	MatchStatusRejected  MatchStatus = "REJECTED"
)

func (s MatchStatus) String() string { return string(s) }

func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAutomatic, MatchStatusConfirmed, MatchStatusRejected:
		return true
	}
	return false
}

// IsActive reports whether the match currently binds its item to its facility.
// At most one active match may exist per item.
func (s MatchStatus) IsActive() bool {
	return s == MatchStatusAutomatic || s == MatchStatusConfirmed
}

// ProcessingAction identifies the pipeline stage that produced a
// processing-result entry on an item.
type ProcessingAction string

const (
	ActionParse   ProcessingAction = "parse"
	ActionGeocode ProcessingAction = "geocode"
	ActionMatch   ProcessingAction = "match"
	ActionConfirm ProcessingAction = "confirm"
)

func (a ProcessingAction) String() string { return string(a) }

func (a ProcessingAction) IsValid() bool {
	switch a {
	case ActionParse, ActionGeocode, ActionMatch, ActionConfirm:
		return true
	}
	return false
}

// ContributorType is the category an uploading organization belongs to.
type ContributorType string

const (
	ContributorTypeAuditor            ContributorType = "Auditor"
	ContributorTypeBrandRetailer      ContributorType = "Brand/Retailer"
	ContributorTypeCivilSociety       ContributorType = "Civil Society Organization"
	ContributorTypeFactory            ContributorType = "Factory / Facility"
	ContributorTypeManufacturingGroup ContributorType = "Manufacturing Group / Supplier / Vendor"
	ContributorTypeMultiStakeholder   ContributorType = "Multi Stakeholder Initiative"
	ContributorTypeResearcher         ContributorType = "Researcher / Academic"
	ContributorTypeServiceProvider    ContributorType = "Service Provider"
	ContributorTypeUnion              ContributorType = "Union"
	ContributorTypeOther              ContributorType = "Other"
)

// ContributorTypes lists all valid contributor types in display order.
var ContributorTypes = []ContributorType{
	ContributorTypeAuditor,
	ContributorTypeBrandRetailer,
	ContributorTypeCivilSociety,
	ContributorTypeFactory,
	ContributorTypeManufacturingGroup,
	ContributorTypeMultiStakeholder,
	ContributorTypeResearcher,
	ContributorTypeServiceProvider,
	ContributorTypeUnion,
	ContributorTypeOther,
}

func (t ContributorType) String() string { return string(t) }

func (t ContributorType) IsValid() bool {
	for _, ct := range ContributorTypes {
		if ct == t {
			return true
		}
	}
	return false
}
