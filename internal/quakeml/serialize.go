package quakeml

import (
	"encoding/xml"
	"strconv"
	"time"
)

// TimeLayout is the QuakeML dateTime spelling used for every time value.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// The functions below are the standard per-field rendering rules. They know
// nothing about extra attributes; Dumps merges those onto the event and
// focalMechanism elements after the standard rendering is done.

func publicID(id string) []xml.Attr {
	if id == "" {
		return nil
	}
	return []xml.Attr{{Name: xml.Name{Local: "publicID"}, Value: id}}
}

// str appends <tag>value</tag> unless value is empty.
func str(parent *element, tag, value string) {
	if value == "" {
		return
	}
	parent.append(&element{Name: tag, Text: value})
}

func float(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func floatPtr(parent *element, tag string, v *float64) {
	if v == nil {
		return
	}
	str(parent, tag, float(*v))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func realQuantity(tag string, q RealQuantity) *element {
	el := newElement(tag)
	str(el, "value", float(q.Value))
	floatPtr(el, "uncertainty", q.Uncertainty)
	return el
}

func timeQuantity(tag string, q TimeQuantity) *element {
	el := newElement(tag)
	str(el, "value", formatTime(q.Value))
	floatPtr(el, "uncertainty", q.Uncertainty)
	return el
}

func creationInfo(parent *element, ci *CreationInfo) {
	if ci == nil {
		return
	}
	el := newElement("creationInfo")
	str(el, "agencyID", ci.AgencyID)
	str(el, "agencyURI", ci.AgencyURI)
	str(el, "author", ci.Author)
	str(el, "authorURI", ci.AuthorURI)
	if ci.CreationTime != nil {
		str(el, "creationTime", formatTime(*ci.CreationTime))
	}
	str(el, "version", ci.Version)
	parent.append(el)
}

func comments(parent *element, cs []Comment) {
	for _, c := range cs {
		var attrs []xml.Attr
		if c.ResourceID != "" {
			attrs = []xml.Attr{{Name: xml.Name{Local: "id"}, Value: c.ResourceID}}
		}
		el := newElement("comment", attrs...)
		// Comment text is required even when empty.
		el.append(&element{Name: "text", Text: c.Text})
		creationInfo(el, c.CreationInfo)
		parent.append(el)
	}
}

func waveformID(tag string, w WaveformStreamID) *element {
	attrs := []xml.Attr{
		{Name: xml.Name{Local: "networkCode"}, Value: w.Network},
		{Name: xml.Name{Local: "stationCode"}, Value: w.Station},
	}
	if w.Location != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "locationCode"}, Value: w.Location})
	}
	if w.Channel != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "channelCode"}, Value: w.Channel})
	}
	return newElement(tag, attrs...)
}

func originElement(o Origin) *element {
	el := newElement("origin", publicID(o.ResourceID)...)
	el.append(timeQuantity("time", o.Time))
	el.append(realQuantity("latitude", o.Latitude))
	el.append(realQuantity("longitude", o.Longitude))
	if o.Depth != nil {
		el.append(realQuantity("depth", *o.Depth))
	}
	str(el, "depthType", o.DepthType)
	str(el, "methodID", o.MethodID)
	str(el, "evaluationMode", o.EvaluationMode)
	str(el, "evaluationStatus", o.EvaluationStatus)
	for _, a := range o.Arrivals {
		ael := el.append(newElement("arrival", publicID(a.ResourceID)...))
		str(ael, "pickID", a.PickID)
		str(ael, "phase", a.Phase)
		floatPtr(ael, "azimuth", a.Azimuth)
		floatPtr(ael, "distance", a.Distance)
		floatPtr(ael, "timeResidual", a.TimeResidual)
		floatPtr(ael, "timeWeight", a.TimeWeight)
	}
	comments(el, o.Comments)
	creationInfo(el, o.CreationInfo)
	return el
}

func magnitudeElement(m Magnitude) *element {
	el := newElement("magnitude", publicID(m.ResourceID)...)
	el.append(realQuantity("mag", m.Mag))
	str(el, "type", m.Type)
	str(el, "originID", m.OriginID)
	str(el, "methodID", m.MethodID)
	if m.StationCount != nil {
		str(el, "stationCount", strconv.Itoa(*m.StationCount))
	}
	comments(el, m.Comments)
	creationInfo(el, m.CreationInfo)
	return el
}

func stationMagnitudeElement(m StationMagnitude) *element {
	el := newElement("stationMagnitude", publicID(m.ResourceID)...)
	str(el, "originID", m.OriginID)
	el.append(realQuantity("mag", m.Mag))
	str(el, "type", m.Type)
	if m.WaveformID != nil {
		el.append(waveformID("waveformID", *m.WaveformID))
	}
	comments(el, m.Comments)
	creationInfo(el, m.CreationInfo)
	return el
}

func pickElement(p Pick) *element {
	el := newElement("pick", publicID(p.ResourceID)...)
	el.append(timeQuantity("time", p.Time))
	el.append(waveformID("waveformID", p.WaveformID))
	str(el, "onset", p.Onset)
	str(el, "phaseHint", p.PhaseHint)
	str(el, "polarity", p.Polarity)
	str(el, "evaluationMode", p.EvaluationMode)
	comments(el, p.Comments)
	creationInfo(el, p.CreationInfo)
	return el
}

func nodalPlane(tag string, np *NodalPlane) *element {
	el := newElement(tag)
	el.append(realQuantity("strike", np.Strike))
	el.append(realQuantity("dip", np.Dip))
	el.append(realQuantity("rake", np.Rake))
	return el
}

func focalMechanismElement(fm FocalMechanism) *element {
	el := newElement("focalMechanism", publicID(fm.ResourceID)...)
	str(el, "triggeringOriginID", fm.TriggeringOriginID)
	if nps := fm.NodalPlanes; nps != nil {
		var attrs []xml.Attr
		if nps.PreferredPlane == 1 || nps.PreferredPlane == 2 {
			attrs = []xml.Attr{{Name: xml.Name{Local: "preferredPlane"}, Value: strconv.Itoa(nps.PreferredPlane)}}
		}
		npel := el.append(newElement("nodalPlanes", attrs...))
		if nps.NodalPlane1 != nil {
			npel.append(nodalPlane("nodalPlane1", nps.NodalPlane1))
		}
		if nps.NodalPlane2 != nil {
			npel.append(nodalPlane("nodalPlane2", nps.NodalPlane2))
		}
	}
	if mt := fm.MomentTensor; mt != nil {
		mtel := el.append(newElement("momentTensor", publicID(mt.ResourceID)...))
		str(mtel, "derivedOriginID", mt.DerivedOriginID)
		str(mtel, "momentMagnitudeID", mt.MomentMagnitudeID)
		if mt.ScalarMoment != nil {
			mtel.append(realQuantity("scalarMoment", *mt.ScalarMoment))
		}
		if t := mt.Tensor; t != nil {
			tel := mtel.append(newElement("tensor"))
			tel.append(realQuantity("Mrr", t.Mrr))
			tel.append(realQuantity("Mtt", t.Mtt))
			tel.append(realQuantity("Mpp", t.Mpp))
			tel.append(realQuantity("Mrt", t.Mrt))
			tel.append(realQuantity("Mrp", t.Mrp))
			tel.append(realQuantity("Mtp", t.Mtp))
		}
		str(mtel, "methodID", mt.MethodID)
	}
	str(el, "methodID", fm.MethodID)
	str(el, "evaluationMode", fm.EvaluationMode)
	str(el, "evaluationStatus", fm.EvaluationStatus)
	comments(el, fm.Comments)
	creationInfo(el, fm.CreationInfo)
	return el
}
