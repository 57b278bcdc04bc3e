// Command archivist archives Facebook export bundles to YouTube and migrates
// a legacy photo gallery to S3.
package main

func main() {
	Execute()
}
