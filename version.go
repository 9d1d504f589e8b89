package surveyflow

// Version is overridden at build time with -ldflags "-X github.com/aretw0/surveyflow.Version=...".
var Version = "dev"
