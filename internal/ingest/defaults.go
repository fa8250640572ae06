package ingest

// DefaultDICOMFields is the header field selection sent to the engine when a
// run does not pick its own: identifiers, geometry, timing and contrast,
// diffusion, parallel imaging, bandwidth, phase encoding, hardware, coverage,
// scan options, gating, and niche sequence parameters.
var DefaultDICOMFields = []string{
	// Core identifiers
	"SeriesDescription",
	"SequenceName",
	"SequenceVariant",
	"ScanningSequence",
	"ImageType",
	"Manufacturer",
	"ManufacturerModelName",
	"SoftwareVersion",

	// Geometry
	"MRAcquisitionType",
	"SliceThickness",
	"PixelSpacing",
	"Rows",
	"Columns",
	"Slices",
	"AcquisitionMatrix",
	"ReconstructionDiameter",

	// Timing / contrast
	"RepetitionTime",
	"EchoTime",
	"InversionTime",
	"FlipAngle",
	"EchoTrainLength",
	"GradientEchoTrainLength",
	"NumberOfTemporalPositions",
	"TemporalResolution",
	"SliceTiming",

	// Diffusion
	"DiffusionBValue",
	"DiffusionGradientDirectionSequence",

	// Parallel imaging / multiband
	"ParallelAcquisitionTechnique",
	"ParallelReductionFactorInPlane",
	"PartialFourier",
	"SliceAccelerationFactor",

	// Bandwidth / readout
	"PixelBandwidth",
	"BandwidthPerPixelPhaseEncode",

	// Phase encoding
	"InPlanePhaseEncodingDirection",
	"PhaseEncodingDirectionPositive",
	"NumberOfPhaseEncodingSteps",

	// Scanner hardware
	"MagneticFieldStrength",
	"ImagingFrequency",
	"ImagedNucleus",
	"TransmitCoilName",
	"ReceiveCoilName",
	"SAR",
	"NumberOfAverages",
	"CoilType",

	// Coverage / FOV
	"PercentSampling",
	"PercentPhaseFieldOfView",

	// Scan options
	"ScanOptions",
	"AngioFlag",

	// Triggering / gating
	"TriggerTime",
	"TriggerSourceOrType",
	"BeatRejectionFlag",
	"LowRRValue",
	"HighRRValue",

	// Advanced / niche
	"SpoilingRFPhaseAngle",
	"PerfusionTechnique",
	"SpectrallySelectedExcitation",
	"SaturationRecovery",
	"SpectrallySelectedSuppression",
	"TimeOfFlightContrast",
	"SteadyStatePulseSequence",
	"PartialFourierDirection",
}
