package internal

const PackageVersion = "1.4.0"
