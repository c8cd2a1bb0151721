// Package config loads, normalizes, and validates qrprint configuration data.
//
// Two documents live here. The TOML application config covers directories,
// the persistence worker's timing knobs, dispatch limits, notifications, and
// logging. The JSON printer-class document maps scanned prefixes onto printer
// classes (label, receipt, ...) along with their printer, media, and spooler
// options; it keeps the on-disk shape older stations already wrote.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
