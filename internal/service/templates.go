package service

// Fixed replies for non-substantive turns. Keeping these template-anchored
// gives greetings and off-topic questions a controlled tone instead of
// routing them through the main answering prompt.

const greetingReply = `Hello! I'm a legal information assistant. I can answer questions grounded in our reference materials, for example:

- "What should I check before signing a residential lease?"
- "Can my landlord keep my security deposit without an itemized list?"
- "What are my options if my employer hasn't paid my wages on time?"

If you'd rather speak with a human legal consultant, just say so and I'll collect your preferred contact method and availability.`

// genericSystemPrompt drives the secondary completion for substantive but
// non-legal turns: short, generic, explicitly non-authoritative.
const genericSystemPrompt = `The user's question falls outside the legal domain this service covers. Give a brief, general-information answer of two to three sentences. Avoid authoritative claims and do not present yourself as an expert on the topic.`

const consultationHandoff = `For guidance specific to your situation, I can arrange a consultation with a human legal professional - just share your preferred contact method and availability.`

const apologyReply = `I'm sorry - I wasn't able to answer that right now. ` + consultationHandoff
