package schema

// Tipping elements of the reference network.
const (
	GIS  Element = "GIS"  // Greenland Ice Sheet
	THC  Element = "THC"  // thermohaline circulation
	WAIS Element = "WAIS" // West Antarctic Ice Sheet
	AMAZ Element = "AMAZ" // Amazon rainforest
	NINO Element = "NINO" // El Nino Southern Oscillation
)

// ReferenceDefinition is the five element network with NINO held out of sampling.
//
// Thresholds (degrees of warming) and timescales (years) follow Armstrong McKay et al. 2022.
// Coupling strengths are rescaled probability fractions after Kriegler et al. 2009; the
// WAIS->THC and THC->AMAZ links have an uncertain sign.
func ReferenceDefinition() Definition {
	return Definition{
		Elements: []ElementSpec{
			{Element: GIS, Threshold: Range{0.8, 3.0}, Timescale: Range{1000, 15000}},
			{Element: THC, Threshold: Range{1.4, 8.0}, Timescale: Range{15, 300}},
			{Element: WAIS, Threshold: Range{1.0, 3.0}, Timescale: Range{500, 13000}},
			{Element: AMAZ, Threshold: Range{2.0, 6.0}, Timescale: Range{50, 200}},
			{Element: NINO, Threshold: Range{3.0, 6.0}, Timescale: Range{25, 200}},
		},
		Couplings: []CouplingEdge{
			// to GIS
			{Source: WAIS, Target: GIS, Strength: Range{0.1, 0.2}},
			{Source: THC, Target: GIS, Strength: Range{0.1, 1.0}},
			// to THC
			{Source: GIS, Target: THC, Strength: Range{0.1, 1.0}},
			{Source: NINO, Target: THC, Strength: Range{0.1, 0.2}},
			{Source: WAIS, Target: THC, Strength: Range{-0.3, 0.3}},
			// to WAIS
			{Source: NINO, Target: WAIS, Strength: Range{0.1, 0.5}},
			{Source: THC, Target: WAIS, Strength: Range{0.1, 0.15}},
			{Source: GIS, Target: WAIS, Strength: Range{0.1, 1.0}},
			// to NINO
			{Source: THC, Target: NINO, Strength: Range{0.1, 0.2}},
			{Source: AMAZ, Target: NINO, Strength: Range{0.1, 0.15}},
			// to AMAZ
			{Source: NINO, Target: AMAZ, Strength: Range{0.1, 1.0}},
			{Source: THC, Target: AMAZ, Strength: Range{-0.4, 0.4}},
		},
		// The simulator reads NINO's timescale before AMAZ's.
		TimescaleOrder: []Element{GIS, THC, WAIS, NINO, AMAZ},
		Exclude:        []Element{NINO},
		FixedValue:     DefaultFixedValue,
	}
}

// Reference builds the reference schema: 22 slots, 15 of them sampled.
func Reference() *Schema {
	sch, err := Build(ReferenceDefinition())
	if err != nil {
		panic(err)
	}

	return sch
}
