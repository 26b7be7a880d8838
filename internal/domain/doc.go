// Package domain models National Weather Service (NWS) public alerts and
// their SAME (Specific Area Message Encoding) representation.
//
// # Data Source
//
// Alerts originate from the api.weather.gov active-alerts feed for a forecast
// zone, e.g. https://api.weather.gov/alerts/active?zone=TXZ019. Each GeoJSON
// feature carries CAP fields (event, severity, onset, ends/expires, headline,
// description) that the normalizer reduces to an [AlertRecord].
//
// # SAME Header Layout (47 CFR §11.31)
//
//	ZCZC-ORG-EEE-PSSCCC+TTTT-JJJHHMM-LLLLLLLL-
//
//	ORG     originator: EAS participant, WXR weather service, PEP primary
//	        entry point, CIV civil authority
//	EEE     3-letter event code from the SAME event table, e.g. TOR
//	P       cardinal/subdivision locator; always 0 here (whole area)
//	SS      2-digit state FIPS code
//	CCC     3-digit county or forecast-zone code
//	TTTT    purge time, quantized by [QuantizePurge]
//	JJJHHMM issue time: UTC day of year, hour, minute of the alert onset
//	LLLLLLLL station callsign, up to 8 characters
//
// The rendering without the callsign segment is the "minimal header"; it is
// stable per alert and keys the cache of generated announcement audio.
//
// # Purge Time Banding
//
// The TTTT field coarsens as the alert's validity window grows: quarter-hour
// steps up to an hour, half-hour steps up to six hours, whole hours up to the
// protocol maximum of 99 hours, then the "9930" sentinel.
//
// # Zone Identifiers
//
// Forecast zones are "<state>Z<3 digits>" (TXZ019) and counties
// "<state>C<3 digits>" (TXC021). The feed's compound identifier joins the two
// with a comma; the county element is optional and defaults to code 000 in
// the zone's state.
package domain
