// atlasctl is the operational companion to the atlas server: schema
// migrations, ATT&CK imports and demo data seeding.
package main

func main() {
	Execute()
}
