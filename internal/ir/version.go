package ir

// SchemaVersion is the version of the module file layout read and written
// by the codecs.
const SchemaVersion = "1"

// ToolVersion is the modopt release.
const ToolVersion = "0.1.0"
