package pkg

var Version = "unknown"
