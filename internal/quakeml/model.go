// Package quakeml renders seismic event catalogs as QuakeML documents whose
// event and focalMechanism elements can carry extra attributes qualified by a
// caller-chosen namespace prefix (the ANSS "catalog" convention).
//
// The event model in this file is the minimal subset of QuakeML BED 1.2 needed
// for reporting. It is a plain data model: nothing here knows about
// namespaces.
package quakeml

import (
	"time"

	"github.com/google/uuid"
)

// NewResourceID returns a fresh "smi:local/<uuid>" resource identifier.
func NewResourceID() string {
	return "smi:local/" + uuid.NewString()
}

// Catalog is an ordered collection of events.
type Catalog struct {
	ResourceID   string        `json:"resource_id"`
	Description  string        `json:"description,omitempty"`
	Comments     []Comment     `json:"comments,omitempty"`
	CreationInfo *CreationInfo `json:"creation_info,omitempty"`
	Events       []Event       `json:"events"`
}

// NewCatalog returns an empty catalog with a generated resource id.
func NewCatalog(events ...Event) *Catalog {
	return &Catalog{ResourceID: NewResourceID(), Events: events}
}

// Event is a single seismic event.
type Event struct {
	ResourceID                string             `json:"resource_id"`
	PreferredOriginID         string             `json:"preferred_origin_id,omitempty"`
	PreferredMagnitudeID      string             `json:"preferred_magnitude_id,omitempty"`
	PreferredFocalMechanismID string             `json:"preferred_focal_mechanism_id,omitempty"`
	Type                      string             `json:"event_type,omitempty"`
	TypeCertainty             string             `json:"event_type_certainty,omitempty"`
	Descriptions              []EventDescription `json:"event_descriptions,omitempty"`
	Comments                  []Comment          `json:"comments,omitempty"`
	CreationInfo              *CreationInfo      `json:"creation_info,omitempty"`
	Origins                   []Origin           `json:"origins,omitempty"`
	Magnitudes                []Magnitude        `json:"magnitudes,omitempty"`
	StationMagnitudes         []StationMagnitude `json:"station_magnitudes,omitempty"`
	Picks                     []Pick             `json:"picks,omitempty"`
	FocalMechanisms           []FocalMechanism   `json:"focal_mechanisms,omitempty"`
}

// EventDescription is a free-text description with an optional type such as
// "region name" or "earthquake name".
type EventDescription struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

// Comment is a text annotation with optional id and creation info.
type Comment struct {
	ResourceID   string        `json:"resource_id,omitempty"`
	Text         string        `json:"text"`
	CreationInfo *CreationInfo `json:"creation_info,omitempty"`
}

// CreationInfo describes who created a resource and when.
type CreationInfo struct {
	AgencyID     string     `json:"agency_id,omitempty"`
	AgencyURI    string     `json:"agency_uri,omitempty"`
	Author       string     `json:"author,omitempty"`
	AuthorURI    string     `json:"author_uri,omitempty"`
	CreationTime *time.Time `json:"creation_time,omitempty"`
	Version      string     `json:"version,omitempty"`
}

// RealQuantity is a value with an optional symmetric uncertainty.
type RealQuantity struct {
	Value       float64  `json:"value"`
	Uncertainty *float64 `json:"uncertainty,omitempty"`
}

// TimeQuantity is a point in time with an optional uncertainty in seconds.
type TimeQuantity struct {
	Value       time.Time `json:"value"`
	Uncertainty *float64  `json:"uncertainty,omitempty"`
}

// WaveformStreamID identifies a channel by its SEED codes.
type WaveformStreamID struct {
	Network  string `json:"network"`
	Station  string `json:"station"`
	Location string `json:"location,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

// Origin is a hypocenter solution.
type Origin struct {
	ResourceID       string        `json:"resource_id"`
	Time             TimeQuantity  `json:"time"`
	Latitude         RealQuantity  `json:"latitude"`
	Longitude        RealQuantity  `json:"longitude"`
	Depth            *RealQuantity `json:"depth,omitempty"`
	DepthType        string        `json:"depth_type,omitempty"`
	MethodID         string        `json:"method_id,omitempty"`
	EvaluationMode   string        `json:"evaluation_mode,omitempty"`
	EvaluationStatus string        `json:"evaluation_status,omitempty"`
	Arrivals         []Arrival     `json:"arrivals,omitempty"`
	Comments         []Comment     `json:"comments,omitempty"`
	CreationInfo     *CreationInfo `json:"creation_info,omitempty"`
}

// Arrival associates a pick with an origin.
type Arrival struct {
	ResourceID   string   `json:"resource_id"`
	PickID       string   `json:"pick_id"`
	Phase        string   `json:"phase"`
	Azimuth      *float64 `json:"azimuth,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	TimeResidual *float64 `json:"time_residual,omitempty"`
	TimeWeight   *float64 `json:"time_weight,omitempty"`
}

// Magnitude is a network magnitude.
type Magnitude struct {
	ResourceID   string        `json:"resource_id"`
	Mag          RealQuantity  `json:"mag"`
	Type         string        `json:"magnitude_type,omitempty"`
	OriginID     string        `json:"origin_id,omitempty"`
	MethodID     string        `json:"method_id,omitempty"`
	StationCount *int          `json:"station_count,omitempty"`
	Comments     []Comment     `json:"comments,omitempty"`
	CreationInfo *CreationInfo `json:"creation_info,omitempty"`
}

// StationMagnitude is a magnitude measured at a single station.
type StationMagnitude struct {
	ResourceID   string            `json:"resource_id"`
	OriginID     string            `json:"origin_id,omitempty"`
	Mag          RealQuantity      `json:"mag"`
	Type         string            `json:"station_magnitude_type,omitempty"`
	WaveformID   *WaveformStreamID `json:"waveform_id,omitempty"`
	Comments     []Comment         `json:"comments,omitempty"`
	CreationInfo *CreationInfo     `json:"creation_info,omitempty"`
}

// Pick is a phase onset observed on a waveform.
type Pick struct {
	ResourceID     string           `json:"resource_id"`
	Time           TimeQuantity     `json:"time"`
	WaveformID     WaveformStreamID `json:"waveform_id"`
	PhaseHint      string           `json:"phase_hint,omitempty"`
	Onset          string           `json:"onset,omitempty"`
	Polarity       string           `json:"polarity,omitempty"`
	EvaluationMode string           `json:"evaluation_mode,omitempty"`
	Comments       []Comment        `json:"comments,omitempty"`
	CreationInfo   *CreationInfo    `json:"creation_info,omitempty"`
}

// NodalPlane is one fault plane of a focal mechanism, in degrees.
type NodalPlane struct {
	Strike RealQuantity `json:"strike"`
	Dip    RealQuantity `json:"dip"`
	Rake   RealQuantity `json:"rake"`
}

// NodalPlanes holds both planes and which one is preferred (1 or 2, 0 = unset).
type NodalPlanes struct {
	NodalPlane1    *NodalPlane `json:"nodal_plane_1,omitempty"`
	NodalPlane2    *NodalPlane `json:"nodal_plane_2,omitempty"`
	PreferredPlane int         `json:"preferred_plane,omitempty"`
}

// Tensor holds the six independent moment tensor components in Nm.
type Tensor struct {
	Mrr RealQuantity `json:"m_rr"`
	Mtt RealQuantity `json:"m_tt"`
	Mpp RealQuantity `json:"m_pp"`
	Mrt RealQuantity `json:"m_rt"`
	Mrp RealQuantity `json:"m_rp"`
	Mtp RealQuantity `json:"m_tp"`
}

// MomentTensor is a moment tensor solution attached to a focal mechanism.
type MomentTensor struct {
	ResourceID        string        `json:"resource_id"`
	DerivedOriginID   string        `json:"derived_origin_id"`
	MomentMagnitudeID string        `json:"moment_magnitude_id,omitempty"`
	ScalarMoment      *RealQuantity `json:"scalar_moment,omitempty"`
	Tensor            *Tensor       `json:"tensor,omitempty"`
	MethodID          string        `json:"method_id,omitempty"`
}

// FocalMechanism is a fault-plane solution.
type FocalMechanism struct {
	ResourceID         string        `json:"resource_id"`
	TriggeringOriginID string        `json:"triggering_origin_id,omitempty"`
	NodalPlanes        *NodalPlanes  `json:"nodal_planes,omitempty"`
	MomentTensor       *MomentTensor `json:"moment_tensor,omitempty"`
	MethodID           string        `json:"method_id,omitempty"`
	EvaluationMode     string        `json:"evaluation_mode,omitempty"`
	EvaluationStatus   string        `json:"evaluation_status,omitempty"`
	Comments           []Comment     `json:"comments,omitempty"`
	CreationInfo       *CreationInfo `json:"creation_info,omitempty"`
}
