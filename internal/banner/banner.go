// Package banner renders the startup banner.
package banner

import "fmt"

const art = `
 _                                              
| |__   __ _ _ __ ___  ___ _ __   __ _ _ __ ___  
| '_ \ / _' | '_ ' _ \/ __| '_ \ / _' | '_ ' _ \ 
| | | | (_| | | | | | \__ \ |_) | (_| | | | | | |
|_| |_|\__,_|_| |_| |_|___/ .__/ \__,_|_| |_| |_|
                          |_|                    
`

// Banner returns the banner with the version line appended.
func Banner(version string) string {
	return fmt.Sprintf("%s  spam/ham text classifier %s\n\n", art, version)
}
