package platform

// Package platform contains OS integration glue: download directory
// resolution, file name sanitisation, folder reveal and playlist expansion.
