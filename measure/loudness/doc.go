// Package loudness measures programme loudness after ITU-R BS.1770 with
// the EBU R128 gating rules: momentary (400 ms), short-term (3 s) and
// gated integrated loudness in LUFS.
package loudness
